package assistant

var cannedResponses = []string{
	"This relates directly to what Professor mentioned in the recent lecture. The core concept is that we need to balance efficiency with readability. Consider this implementation:\n\n```javascript\nfunction optimizedSolution(arr) {\n  return arr.reduce((acc, val) => acc + val, 0);\n}\n```\n\nThis approach is both clean and performant.",
	"Great question! Let me break this down step by step:\n\n1. First, identify the base case\n2. Then, determine the recursive relationship\n3. Finally, implement with proper bounds checking\n\nWould you like me to provide a specific example?",
	"Based on the course materials, here's what you need to focus on:\n\n- Time complexity analysis\n- Space optimization techniques\n- Edge case handling\n\nThe key insight is understanding the trade-offs between different approaches.",
}

const improveTemplate = "Here's an improved, more detailed explanation:\n\n%s\n\nAdditionally, let me break this down step-by-step to make it clearer..."

const summaryText = `**Chat Summary**

This conversation covered the following key points:

1. Core concepts and definitions
2. Practical applications and examples
3. Common pitfalls and best practices

Key takeaways:
- Understanding the fundamental principles is crucial
- Practice with real examples helps solidify concepts
- Always consider edge cases in your solutions`

const studyNotesText = "# Study Notes\n\n" +
	"## Key Concepts\n\n" +
	"- **Definition 1**: Core concept explanation\n" +
	"- **Definition 2**: Important principle\n\n" +
	"## Formulas\n\n" +
	"```\nFormula 1: x = y + z\nFormula 2: a = b * c\n```\n\n" +
	"## Practice Problems\n\n" +
	"1. Apply concept to solve...\n" +
	"2. Consider the case where...\n\n" +
	"## Exam Tips\n\n" +
	"- Remember to check edge cases\n" +
	"- Show your work step-by-step\n" +
	"- Double-check your answers"

const stepByStepText = `## Step-by-Step Explanation

**Step 1**: First, identify the problem requirements
- Break down what's being asked
- Note any constraints or special conditions

**Step 2**: Plan your approach
- Choose the appropriate method or algorithm
- Consider time and space complexity

**Step 3**: Implement the solution
- Write clean, readable code
- Add comments for clarity

**Step 4**: Test and verify
- Try with different test cases
- Check edge cases

**Step 5**: Optimize if needed
- Look for inefficiencies
- Consider alternative approaches`

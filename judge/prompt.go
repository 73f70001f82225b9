package judge

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message by transports that support one.
const SystemPrompt = "You are an expert AI agent evaluator. Provide objective, precise evaluations."

const promptTemplate = `You are an expert evaluator of AI agent systems.

Evaluate the following based on this criteria: %s

%s

Input:
%s

Output:
%s

Provide your evaluation in the following format:
SCORE: [0.0 to 1.0]
REASON: [Brief explanation]

Be objective and precise. Consider:
- Does the output address the input?
- Is it correct and appropriate?
- Are there any errors or issues?

Your evaluation:`

// BuildPrompt renders the evaluation prompt. The system context line is left empty when
// systemContext is blank.
func BuildPrompt(criteria, input, output, systemContext string) string {
	contextLine := ""
	if strings.TrimSpace(systemContext) != "" {
		contextLine = "System Context: " + systemContext
	}

	return fmt.Sprintf(promptTemplate, criteria, contextLine, input, output)
}

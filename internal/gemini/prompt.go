package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vigilynx/vigilynx/internal/model"
)

// buildPrompt assembles the structured report request: the five sections plus
// a pie-chart JSON object whose percentages the model is told to echo
// verbatim.
func buildPrompt(inputType model.InputType, input string, stats model.DetectionStats, analysis model.AnalysisRecord, pcts model.Percentages) string {
	statsJSON, _ := json.Marshal(stats)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s: %s for cybersecurity purposes with detailed insights.\n", inputType, input)
	fmt.Fprintf(&b, "VirusTotal stats: %s.\n", statsJSON)
	fmt.Fprintf(&b, "Threat names: %s.\n", orNone(strings.Join(analysis.ThreatNames, ", ")))
	fmt.Fprintf(&b, "Categories: %s.\n", orUnknown(joinCategories(analysis.Categories)))
	fmt.Fprintf(&b, "Reputation: %s.\n", reputationString(analysis.Reputation))
	b.WriteString(`Provide a comprehensive, structured cybersecurity report with:
- **Threats & Vulnerabilities:** List specific threats based solely on the detection data (e.g. malware, phishing) or state "No specific threats detected" if none were found. Include general risks associated with the input type.
- **Reputation:** Assess trustworthiness based on the source and the detection results, with a qualitative analysis.
- **Context:** Describe the input's purpose and potential risks based on its nature (e.g. website, file, address).
- **Safety Tips:** Provide 5+ actionable, specific tips to mitigate risks, tailored to the input type.
`)
	fmt.Fprintf(&b, "- **JSON Pie Chart:** Use these exact values: %s. Do not alter these percentages; they must reflect the detection stats provided.\n", mustMarshalPcts(pcts))
	b.WriteString("Ensure detailed, clear, and actionable content for all sections, avoiding vague or incomplete responses.")
	return b.String()
}

// fallbackNarrative is the deterministic local report used whenever the
// generative call cannot be made or fails. It embeds the same computed
// percentages the prompt would have.
func fallbackNarrative(inputType model.InputType, input string, stats model.DetectionStats, analysis model.AnalysisRecord, pcts model.Percentages) string {
	threats := "No specific threats detected."
	if stats.Malicious > 0 {
		threats = "Detected threats."
		if len(analysis.ThreatNames) > 0 {
			threats = "Detected threats: " + strings.Join(analysis.ThreatNames, ", ") + "."
		}
	}

	reputation := "No data available."
	if analysis.Reputation != nil {
		reputation = fmt.Sprintf("Score: %d", *analysis.Reputation)
	}

	context := "Likely a file or file hash."
	switch inputType {
	case model.InputURL, model.InputDomain:
		context = "Likely a website or service."
	case model.InputIP:
		context = "A network address hosting one or more services."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Cybersecurity Report for %s**\n", input)
	fmt.Fprintf(&b, "- **Threats & Vulnerabilities:** %s\n", threats)
	fmt.Fprintf(&b, "- **Reputation:** %s\n", reputation)
	fmt.Fprintf(&b, "- **Context:** %s\n", context)
	b.WriteString("- **Safety Tips:** Use HTTPS, run antivirus, enable 2FA, verify sources, avoid suspicious links.\n")
	fmt.Fprintf(&b, "- **JSON Pie Chart:** %s\n", mustMarshalPcts(pcts))
	return b.String()
}

// pieChartPattern finds the model's echoed breakdown object. Keys may come
// back in any order, so each value is matched independently afterwards.
var pieChartPattern = regexp.MustCompile(`\{[^{}]*"Safe"\s*:\s*-?\d+[^{}]*\}`)

// enforceBreakdown replaces the model's pie-chart JSON with the computed one
// when the two disagree. Text without a recognizable chart object gets the
// computed chart appended so downstream renderers always find one.
func enforceBreakdown(text string, pcts model.Percentages) string {
	match := pieChartPattern.FindString(text)
	if match == "" {
		return text + "\n- **JSON Pie Chart:** " + mustMarshalPcts(pcts)
	}

	var got model.Percentages
	if err := json.Unmarshal([]byte(match), &got); err == nil && got == pcts {
		return text
	}
	return strings.Replace(text, match, mustMarshalPcts(pcts), 1)
}

func mustMarshalPcts(p model.Percentages) string {
	out, _ := json.Marshal(p)
	return string(out)
}

func joinCategories(cats map[string]string) string {
	if len(cats) == 0 {
		return ""
	}
	vals := make([]string, 0, len(cats))
	for _, v := range cats {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return strings.Join(vals, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func reputationString(r *int64) string {
	if r == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *r)
}

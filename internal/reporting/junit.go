package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spboyer/agentra/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one evaluation.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one trace.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure marks a trace that scored below the threshold.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit maps a result to JUnit XML. Each trace is a test case that
// fails when its score is below threshold.
func ConvertToJUnit(result *models.EvaluationResult, threshold float64) *JUnitTestSuites {
	durationSec := result.TotalDurationMs / 1000.0

	suite := JUnitTestSuite{
		Name:      result.SystemName,
		Tests:     len(result.TraceResults),
		Time:      durationSec,
		Timestamp: result.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "score", Value: fmt.Sprintf("%.4f", result.Score)},
			{Name: "status", Value: string(result.Status)},
			{Name: "threshold", Value: fmt.Sprintf("%.2f", threshold)},
			{Name: "version", Value: result.Version},
		},
	}

	for i := range result.TraceResults {
		tc := convertTraceResult(result.SystemName, &result.TraceResults[i], threshold)
		if tc.Failure != nil {
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertTraceResult(system string, tr *models.TraceResult, threshold float64) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      tr.DisplayName(),
		Classname: system,
		Time:      tr.DurationMs / 1000.0,
	}
	if tr.Score < threshold {
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%s: score=%.2f (threshold %.2f)", tc.Name, tr.Score, threshold),
			Type:    "ScoreBelowThreshold",
			Body:    formatCategories(tr),
		}
	}
	return tc
}

func formatCategories(tr *models.TraceResult) string {
	var b strings.Builder
	for _, cat := range tr.Categories {
		mark := "PASS"
		if cat.Score < warnThreshold {
			mark = "WARN"
		}
		fmt.Fprintf(&b, "[%s] %s: score=%.2f\n", mark, cat.Name, cat.Score)
	}
	for _, issue := range tr.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	return b.String()
}

// WriteJUnitXML writes the JUnit XML for result to w.
func WriteJUnitXML(w io.Writer, result *models.EvaluationResult, threshold float64) error {
	suites := ConvertToJUnit(result, threshold)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

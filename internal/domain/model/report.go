package model

import "time"

// ReportFact is a labelled figure shown in a report's summary block.
type ReportFact struct {
	Label string
	Value string
}

// ChartSeries is one named series of a bar chart.
type ChartSeries struct {
	Name   string
	Values []float64
}

// Chart is a grouped bar chart over shared category labels.
type Chart struct {
	Title  string
	Labels []string
	Series []ChartSeries
}

// Report is the sink-independent content of an export: summary facts,
// charts, and the tabular body.
type Report struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Facts       []ReportFact
	Charts      []Chart
	Header      []string
	Rows        [][]string
}

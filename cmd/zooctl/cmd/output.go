package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatWide  OutputFormat = "wide"
	OutputFormatTable OutputFormat = "table" // Default
)

// GetOutputFormat returns the output format from viper config or flag.
func GetOutputFormat() OutputFormat {
	switch strings.ToLower(viper.GetString("output")) {
	case "yaml", "y":
		return OutputFormatYAML
	case "json", "j":
		return OutputFormatJSON
	case "wide", "w":
		return OutputFormatWide
	default:
		return OutputFormatTable
	}
}

// PrintRecords prints records keyed by ID in the given format.
func PrintRecords(w io.Writer, res resource, records map[int]record, format OutputFormat) error {
	switch format {
	case OutputFormatYAML:
		return printYAML(w, records)
	case OutputFormatJSON:
		return printJSON(w, records)
	default:
		return printTable(w, res, records, format == OutputFormatWide)
	}
}

// PrintResult prints the response of a create, update or delete.
func PrintResult(w io.Writer, result *mutationResponse, format OutputFormat) error {
	switch format {
	case OutputFormatYAML:
		return printYAML(w, result)
	case OutputFormatJSON:
		return printJSON(w, result)
	default:
		if result.ID != 0 {
			_, err := fmt.Fprintf(w, "%s (id %d)\n", result.Message, result.ID)
			return err
		}
		_, err := fmt.Fprintln(w, result.Message)
		return err
	}
}

func printYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(v)
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printTable prints one row per record, ordered by ID.
func printTable(w io.Writer, res resource, records map[int]record, wide bool) error {
	fields := res.fields
	if !wide {
		fields = fields[:res.columns]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)

	header := []string{"ID"}
	for _, f := range fields {
		header = append(header, strings.ToUpper(f))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	ids := make([]int, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		row := []string{strconv.Itoa(id)}
		for _, f := range fields {
			value := records[id][f]
			if value == "" {
				value = "<none>"
			}
			row = append(row, value)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

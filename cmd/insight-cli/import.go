package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inboxpulse/insight-engine/internal/storage"
)

// newImportCmd creates the import command.
func newImportCmd() *cobra.Command {
	var skipErrors bool

	cmd := &cobra.Command{
		Use:   "import [csv file]",
		Short: "Import subject lines from a CSV export",
		Long: `Import loads a subject line CSV export into the warehouse.

The first row must be a header. Recognized columns (case-insensitive):
subject_line, company, sub_industry, open_rate, projected_volume,
date_sent, mailing_type, inbox_rate, spam_rate, read_rate,
read_delete_rate, delete_without_read_rate.

Unrecognized columns are ignored. Run "insight-cli embed" afterwards to
backfill embeddings for the new rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			db, err := openDB()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()
			repos := storage.NewRepositories(db)

			records, err := readCSVRecords(path, f)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("%s: no data rows", path)
			}

			ui := NewUI(outputJSON)
			bar := ui.ProgressBar(int64(len(records)), "Importing")

			ctx := cmd.Context()
			imported, skipped := 0, 0
			for i, rec := range records {
				line, err := subjectLineFromRecord(rec)
				if err == nil {
					err = repos.SubjectLines.Insert(ctx, line)
				}
				if err != nil {
					if !skipErrors {
						return fmt.Errorf("row %d: %w", i+2, err)
					}
					skipped++
					logger.Warn().Err(err).Int("row", i+2).Msg("Skipping row")
				} else {
					imported++
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			if outputJSON {
				return ui.JSON(map[string]int{"imported": imported, "skipped": skipped})
			}
			ui.Success("Imported %d subject lines (%d skipped)", imported, skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipErrors, "skip-errors", false, "skip malformed rows instead of aborting")

	return cmd
}

// csvRecord is one data row keyed by lowercased header name.
type csvRecord map[string]string

func readCSVRecords(path string, r io.Reader) ([]csvRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out []csvRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read row: %w", path, err)
		}
		rec := make(csvRecord, len(header))
		for i, v := range row {
			if i < len(header) {
				rec[header[i]] = strings.TrimSpace(v)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func subjectLineFromRecord(rec csvRecord) (*storage.SubjectLine, error) {
	subject := rec["subject_line"]
	if subject == "" {
		return nil, fmt.Errorf("missing subject_line")
	}

	line := &storage.SubjectLine{
		SubjectLine: subject,
		Company:     rec["company"],
		SubIndustry: rec["sub_industry"],
		DateSent:    rec["date_sent"],
		MailingType: rec["mailing_type"],
	}

	var err error
	if line.OpenRate, err = parseRate(rec["open_rate"]); err != nil {
		return nil, fmt.Errorf("open_rate: %w", err)
	}
	if line.InboxRate, err = parseRate(rec["inbox_rate"]); err != nil {
		return nil, fmt.Errorf("inbox_rate: %w", err)
	}
	if line.SpamRate, err = parseRate(rec["spam_rate"]); err != nil {
		return nil, fmt.Errorf("spam_rate: %w", err)
	}
	if line.ReadRate, err = parseRate(rec["read_rate"]); err != nil {
		return nil, fmt.Errorf("read_rate: %w", err)
	}
	if line.ReadDeleteRate, err = parseRate(rec["read_delete_rate"]); err != nil {
		return nil, fmt.Errorf("read_delete_rate: %w", err)
	}
	if line.DeleteWithoutReadRate, err = parseRate(rec["delete_without_read_rate"]); err != nil {
		return nil, fmt.Errorf("delete_without_read_rate: %w", err)
	}

	if v := rec["projected_volume"]; v != "" {
		// Exports sometimes format volume with thousands separators.
		v = strings.ReplaceAll(v, ",", "")
		line.ProjectedVolume, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("projected_volume: %w", err)
		}
	}

	return line, nil
}

// parseRate accepts a fraction ("0.123"), a percentage ("12.3%"), or empty.
// Rates are stored as fractions.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	if percent {
		v /= 100
	}
	return v, nil
}

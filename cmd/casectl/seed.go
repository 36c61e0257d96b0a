package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
)

type seedFile struct {
	CaseStudies []seedEntry `yaml:"case_studies"`
}

type seedEntry struct {
	Heading        string   `yaml:"heading"`
	ClientName     string   `yaml:"client_name"`
	AccountOwner   string   `yaml:"account_owner"`
	MRR            *float64 `yaml:"mrr"`
	Industry       string   `yaml:"industry"`
	SubIndustry    string   `yaml:"sub_industry"`
	City           string   `yaml:"city"`
	UseCase        string   `yaml:"use_case"`
	AccountSegment string   `yaml:"account_segment"`
	Availability   string   `yaml:"availability"`
	AWSServices    []string `yaml:"aws_services"`
	Content        string   `yaml:"content"`
}

func (e seedEntry) request() casestudies.CreateRequest {
	return casestudies.CreateRequest{
		ClientName:     e.ClientName,
		Heading:        e.Heading,
		AccountOwner:   e.AccountOwner,
		Content:        e.Content,
		MRR:            e.MRR,
		Industry:       e.Industry,
		SubIndustry:    e.SubIndustry,
		City:           e.City,
		UseCase:        e.UseCase,
		AccountSegment: e.AccountSegment,
		Availability:   e.Availability,
		AWSServices:    e.AWSServices,
	}
}

func parseSeed(r io.Reader) ([]seedEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f seedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return f.CaseStudies, nil
}

type seedReport struct {
	Created []string          `yaml:"created" json:"created"`
	Skipped []string          `yaml:"skipped" json:"skipped"`
	Invalid map[string]string `yaml:"invalid,omitempty" json:"invalid,omitempty"`
}

func newSeedCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert case studies from a YAML file, skipping ones already present",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			entries, err := parseSeed(f)
			if err != nil {
				return err
			}

			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				report, err := seed(ctx, rt.service, entries, rt.log)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, report)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures/case_studies.yaml", "seed file")
	return cmd
}

// seed creates every entry not already stored. An entry counts as present
// when a case study with the same heading and client exists.
func seed(ctx context.Context, svc *casestudies.Service, entries []seedEntry, log *slog.Logger) (seedReport, error) {
	report := seedReport{Created: []string{}, Skipped: []string{}}
	for _, e := range entries {
		label := strings.TrimSpace(e.Heading)

		existing, err := svc.List(ctx, casestudies.DefaultFilterState().WithSearch(label))
		if err != nil {
			return report, err
		}
		if containsCase(existing, e) {
			report.Skipped = append(report.Skipped, label)
			continue
		}

		item, err := svc.Create(ctx, e.request())
		var validationErr *casestudies.ValidationError
		switch {
		case errors.As(err, &validationErr):
			if report.Invalid == nil {
				report.Invalid = make(map[string]string)
			}
			report.Invalid[label] = joinFields(validationErr.Fields)
			continue
		case err != nil:
			return report, err
		}
		log.Debug("seed: created", slog.String("case_study_id", item.ID), slog.String("heading", label))
		report.Created = append(report.Created, label)
	}
	return report, nil
}

func containsCase(items []casestudies.CaseStudy, e seedEntry) bool {
	for _, item := range items {
		if strings.EqualFold(item.Heading, strings.TrimSpace(e.Heading)) &&
			strings.EqualFold(item.ClientName, strings.TrimSpace(e.ClientName)) {
			return true
		}
	}
	return false
}

func joinFields(fields map[string]string) string {
	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

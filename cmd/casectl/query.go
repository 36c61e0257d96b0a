package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshnakad-cyber/Finastra/internal/browse"
	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
)

type listFlags struct {
	search         string
	city           []string
	industry       []string
	subIndustry    []string
	useCase        []string
	accountSegment []string
	availability   []string
	awsServices    []string
	mrrMin         float64
	mrrMax         float64
}

func (f listFlags) state() (casestudies.FilterState, error) {
	state := casestudies.DefaultFilterState().
		WithSearch(f.search).
		WithMRRRange(f.mrrMin, f.mrrMax)

	selections := map[casestudies.Facet][]string{
		casestudies.FacetCity:           f.city,
		casestudies.FacetIndustry:       f.industry,
		casestudies.FacetSubIndustry:    f.subIndustry,
		casestudies.FacetUseCase:        f.useCase,
		casestudies.FacetAccountSegment: f.accountSegment,
		casestudies.FacetAvailability:   f.availability,
		casestudies.FacetAWSServices:    f.awsServices,
	}
	for _, facet := range casestudies.AllFacets {
		for _, v := range selections[facet] {
			var err error
			if state, err = state.Toggle(facet, v); err != nil {
				return state, err
			}
		}
	}
	return state, nil
}

type listResult struct {
	Filters casestudies.FilterState `yaml:"filters" json:"filters"`
	Count   int                     `yaml:"count" json:"count"`
	Items   []listItem              `yaml:"items" json:"items"`
}

type listItem struct {
	ID          string   `yaml:"id" json:"id"`
	Heading     string   `yaml:"heading" json:"heading"`
	ClientName  string   `yaml:"client_name" json:"client_name"`
	City        string   `yaml:"city,omitempty" json:"city,omitempty"`
	Industry    string   `yaml:"industry,omitempty" json:"industry,omitempty"`
	MRR         *float64 `yaml:"mrr,omitempty" json:"mrr,omitempty"`
	AWSServices []string `yaml:"aws_services,flow" json:"aws_services"`
	CreatedAt   string   `yaml:"created_at" json:"created_at"`
}

func newListCmd(opts *options) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List case studies matching the given filters, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := f.state()
			if err != nil {
				return err
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				b := browse.New(rt.service)
				view, _, err := b.Update(ctx, func(casestudies.FilterState) (casestudies.FilterState, error) {
					return state, nil
				})
				if err != nil {
					return err
				}
				if view.Err != nil {
					return view.Err
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, summarize(view))
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "s", "", "text searched in heading, content and client name")
	fl.StringSliceVar(&f.city, "city", nil, "city (repeatable)")
	fl.StringSliceVar(&f.industry, "industry", nil, "industry (repeatable)")
	fl.StringSliceVar(&f.subIndustry, "sub-industry", nil, "sub-industry (repeatable)")
	fl.StringSliceVar(&f.useCase, "use-case", nil, "use case (repeatable)")
	fl.StringSliceVar(&f.accountSegment, "segment", nil, "account segment (repeatable)")
	fl.StringSliceVar(&f.availability, "availability", nil, "Public or Non-Referenceable (repeatable)")
	fl.StringSliceVar(&f.awsServices, "aws", nil, "AWS service; every listed service must be present")
	fl.Float64Var(&f.mrrMin, "mrr-min", casestudies.MRRFloor, "minimum MRR")
	fl.Float64Var(&f.mrrMax, "mrr-max", casestudies.MRRCeiling, "maximum MRR")
	return cmd
}

func summarize(view browse.View) listResult {
	out := listResult{Filters: view.Filters, Count: len(view.Items), Items: make([]listItem, 0, len(view.Items))}
	for _, item := range view.Items {
		out.Items = append(out.Items, listItem{
			ID:          item.ID,
			Heading:     item.Heading,
			ClientName:  item.ClientName,
			City:        item.City,
			Industry:    item.Industry,
			MRR:         item.MRR,
			AWSServices: item.AWSServices,
			CreatedAt:   item.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return out
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one case study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				item, err := rt.service.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("show %s: %w", args[0], err)
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, item)
			})
		},
	}
}

func newFacetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "facets",
		Short: "Print the option sets of every filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				return writeOutput(cmd.OutOrStdout(), opts.output, browse.New(rt.service).LoadFacets(ctx))
			})
		},
	}
}

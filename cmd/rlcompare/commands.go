package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/rlcompare/internal/app"
	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/service"
)

func newService() (*service.ComparisonService, func(), error) {
	return app.NewComparisonService(config.Load())
}

func filterFromFlags(c *cli.Context) domain.Filter {
	return domain.Filter{
		ParetoClasses: c.StringSlice("pareto"),
		Locations:     c.StringSlice("location"),
		BusinessTags:  c.StringSlice("business-tag"),
		ProductID:     strings.TrimSpace(c.String("product-id")),
		VendorID:      strings.TrimSpace(c.String("vendor-id")),
	}
}

// noData reports an empty selection on stderr without failing the command.
func noData(c *cli.Context, err error) error {
	if errors.Is(err, domain.ErrEmptySelection) {
		fmt.Fprintln(c.App.ErrWriter, err.Error())
		return nil
	}
	return err
}

func runCompare(c *cli.Context) error {
	view, ok := domain.ParseViewMode(c.String("view"))
	if !ok {
		return fmt.Errorf("invalid view %q, expected product or vendor", c.String("view"))
	}

	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	cmp, err := svc.Compare(c.Context, view, filterFromFlags(c))
	if err != nil {
		return noData(c, err)
	}
	return renderComparison(c.App.Writer, c.String("format"), cmp)
}

func runExportUnsafe(c *cli.Context) error {
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	n, err := svc.ExportUnsafe(c.Context, filterFromFlags(c), w)
	if err != nil {
		return noData(c, err)
	}
	fmt.Fprintf(c.App.ErrWriter, "%d unsafe rows exported\n", n)
	return nil
}

func runSeries(c *cli.Context) error {
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	series, err := svc.Series(c.Context, c.Bool("redistribute"), filterFromFlags(c))
	if err != nil {
		return noData(c, err)
	}
	return renderSeries(c.App.Writer, c.String("format"), series)
}

func runOutcomes(c *cli.Context) error {
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	outcomes, err := svc.Outcomes(c.Context)
	if err != nil {
		return err
	}
	return renderOutcomes(c.App.Writer, c.String("format"), outcomes)
}

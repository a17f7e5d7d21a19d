package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/packfs/packfs/internal/domain/repository"
	"github.com/packfs/packfs/internal/infrastructure/config"
	"github.com/packfs/packfs/internal/infrastructure/logging"
	"github.com/packfs/packfs/internal/infrastructure/monitoring"
)

func main() {
	location := flag.String("location", "", "Catalog root location (overrides PACKFS_PATH)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *dev {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := *location
	if root == "" {
		locations := cfg.Catalog.Locations()
		if len(locations) == 0 {
			fmt.Fprintln(os.Stderr, "no catalog location: set -location or PACKFS_PATH")
			os.Exit(2)
		}
		root = locations[0]
	}

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics(nil)
	}

	repo := repository.New(root, repository.Options{
		Logger:            logger,
		Metrics:           metrics,
		MaxChangelogChars: cfg.Catalog.MaxChangelogChars,
	})

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(repo, args); err != nil {
		logger.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(repo *repository.Repository, args []string) error {
	switch args[0] {
	case "families":
		return listFamilies(repo, args[1:])
	case "packages":
		if len(args) < 2 {
			return fmt.Errorf("usage: packfs packages <family>")
		}
		return listPackages(repo, args[1])
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: packfs show <family> [version]")
		}
		ver := ""
		if len(args) > 2 {
			ver = args[2]
		}
		return showPackage(repo, args[1], ver)
	case "warm":
		return repo.Warm()
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func listFamilies(repo *repository.Repository, args []string) error {
	var families []repository.Family
	var err error
	if len(args) > 0 {
		families, err = repo.FindFamilies(args[0])
	} else {
		families, err = repo.Families()
	}
	if err != nil {
		return err
	}

	type familyRow struct {
		Name            string `json:"name"`
		URI             string `json:"uri"`
		LastReleaseTime int64  `json:"last_release_time"`
	}
	rows := make([]familyRow, 0, len(families))
	for _, f := range families {
		rows = append(rows, familyRow{
			Name:            f.Name(),
			URI:             f.URI(),
			LastReleaseTime: repo.LastReleaseTime(f),
		})
	}
	return printJSON(rows)
}

func listPackages(repo *repository.Repository, name string) error {
	fam, err := repo.GetFamily(name)
	if err != nil {
		return err
	}
	if fam == nil {
		return fmt.Errorf("no such family %q", name)
	}

	packages, err := repo.Packages(fam)
	if err != nil {
		return err
	}

	type packageRow struct {
		Name     string `json:"name"`
		Version  string `json:"version,omitempty"`
		URI      string `json:"uri"`
		Variants int    `json:"variants"`
	}
	rows := make([]packageRow, 0, len(packages))
	for _, pkg := range packages {
		variants, err := repo.Variants(pkg)
		if err != nil {
			return err
		}
		rows = append(rows, packageRow{
			Name:     pkg.Name(),
			Version:  pkg.Version(),
			URI:      pkg.URI(),
			Variants: len(variants),
		})
	}
	return printJSON(rows)
}

func showPackage(repo *repository.Repository, name, ver string) error {
	fam, err := repo.GetFamily(name)
	if err != nil {
		return err
	}
	if fam == nil {
		return fmt.Errorf("no such family %q", name)
	}

	packages, err := repo.Packages(fam)
	if err != nil {
		return err
	}
	for _, pkg := range packages {
		if pkg.Version() != ver {
			continue
		}
		doc, err := pkg.Data()
		if err != nil {
			return err
		}
		return printJSON(doc)
	}
	return fmt.Errorf("no package %s-%s", name, ver)
}

func printJSON(v interface{}) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: packfs [-location DIR] [-dev] <command>

commands:
  families [glob]          list package families
  packages <family>        list a family's packages
  show <family> [version]  print a package document as JSON
  warm                     pre-warm the listing caches`)
}

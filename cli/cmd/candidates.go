package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/loamworks/sounder/candidate"
	"github.com/loamworks/sounder/cli/render"
)

// CandidatesCommand returns the candidates command: a read-only dry run
// that prints the enumeration the probe command would attempt, in order,
// without dialing anything. Credentials are not required.
func CandidatesCommand() *cli.Command {
	return &cli.Command{
		Name:   "candidates",
		Usage:  "List the candidate endpoints a probe run would try (no network)",
		Flags:  specFlags(),
		Action: candidatesAction,
	}
}

func candidatesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	spec, err := buildSpec(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	candidates, err := candidate.Generate(spec)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	return renderer.RenderCandidates(candidates)
}

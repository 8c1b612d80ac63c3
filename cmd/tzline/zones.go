package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/infracollect/tzline/internal/tz"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const defaultZoneinfoDir = "/usr/share/zoneinfo"

var zonesCommand = &cli.Command{
	Name:  "zones",
	Usage: "List the timezone names found in a zoneinfo directory",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "prefix",
			UsageText: "Only list zones starting with this prefix (e.g. Europe/)",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		cfg, err := loadServerConfig(command)
		if err != nil {
			return err
		}

		dir := defaultZoneinfoDir
		if db := cfg.Spec.TimezoneDatabase; db != nil && db.Directory != nil {
			dir = db.Directory.Path
		}

		zones, err := tz.ListZones(afero.NewBasePathFs(afero.NewOsFs(), dir))
		if err != nil {
			return fmt.Errorf("failed to list zones in %s: %w", dir, err)
		}

		prefix := command.StringArg("prefix")
		for _, zone := range lo.Filter(zones, func(z string, _ int) bool { return strings.HasPrefix(z, prefix) }) {
			fmt.Println(zone)
		}
		return nil
	},
}

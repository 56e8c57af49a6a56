package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/procurement/backend/internal/infrastructure/migration"
	"github.com/procurement/backend/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back and inspect golang-migrate migrations. The SQL embedded in
the binary is used unless --path points at a directory on disk.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "path", "", "read migrations from this directory instead of the embedded set")

	// run opens a migrator for commands that need the database
	run := func(fn func(m *migration.Migrator) error) error {
		db, err := sql.Open("postgres", c.cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		var opts []migration.Option
		if dir != "" {
			opts = append(opts, migration.WithDirectory(dir))
		}
		m, err := migration.New(db, c.log, opts...)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(func(m *migration.Migrator) error { return m.Up() })
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(func(m *migration.Migrator) error { return m.Down() })
		},
	}
	step := &cobra.Command{
		Use:   "step <n>",
		Short: "Apply n migrations (negative rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return run(func(m *migration.Migrator) error { return m.Steps(n) })
		},
	}
	gotoCmd := &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return run(func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
		},
	}
	version := &cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(func(m *migration.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}
	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Force the recorded version after a failed migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			c.log.Warn("Forcing migration version", zap.Int("version", v))
			return run(func(m *migration.Migrator) error { return m.Force(v) })
		},
	}
	create := &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := dir
			if target == "" {
				target = "migrations"
			}
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(target, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n        %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fsys fs.FS = migrations.FS
			if dir != "" {
				fsys = os.DirFS(dir)
			}
			infos, err := migration.ListMigrations(fsys)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{strconv.FormatUint(uint64(info.Version), 10), info.Name, strconv.FormatBool(info.HasDown)})
			}
			return c.render(cmd.OutOrStdout(), infos, []string{"Version", "Name", "Down"}, rows)
		},
	}

	cmd.AddCommand(up, down, step, gotoCmd, version, force, create, list)
	return cmd
}

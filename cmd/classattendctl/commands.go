package main

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/logging"
	"classattend/internal/store"
)

// env carries what every subcommand needs once the root has loaded config.
type env struct {
	cfg config.App
	log *slog.Logger

	// openStore is swapped in tests.
	openStore func(ctx context.Context, backend, dsn string) (attendance.Store, func() error, error)
}

func newRootCmd() *cobra.Command {
	e := &env{openStore: store.Open}
	return e.rootCmd()
}

func (e *env) rootCmd() *cobra.Command {
	var backend string
	root := &cobra.Command{
		Use:           "classattendctl",
		Short:         "Administer a classattend deployment",
		Long:          "classattendctl runs schema migrations and manages teacher accounts\nagainst the store configured for the API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = config.Load()
			if backend != "" {
				e.cfg.StoreBackend = backend
			}
			e.log = logging.NewWithWriter(cmd.ErrOrStderr(), e.cfg.LogLevel, e.cfg.LogFormat).With("component", "ctl")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&backend, "store", "", "override STORE_BACKEND (postgres, sqlite, memory)")

	teacherCmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teacher accounts",
	}
	teacherCmd.AddCommand(e.teacherCreateCmd())

	classCmd := &cobra.Command{
		Use:   "class",
		Short: "Inspect classes",
	}
	classCmd.AddCommand(e.classListCmd())

	root.AddCommand(e.migrateCmd(), teacherCmd, classCmd)
	return root
}

// withStore opens the configured store for the duration of fn.
func (e *env) withStore(ctx context.Context, fn func(attendance.Store) error) error {
	st, closeStore, err := e.openStore(ctx, e.cfg.StoreBackend, e.cfg.StoreDSN())
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(st)
}

func (e *env) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open migrates as part of connecting.
			return e.withStore(cmd.Context(), func(attendance.Store) error {
				e.log.Info("schema up to date", "backend", e.cfg.StoreBackend)
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", e.cfg.StoreBackend)
				return nil
			})
		},
	}
}

func (e *env) teacherCreateCmd() *cobra.Command {
	var in attendance.NewTeacher
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a teacher account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(cmd.Context(), func(st attendance.Store) error {
				teachers := attendance.NewTeachers(st, auth.BcryptHasher{}, e.log)
				t, err := teachers.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created teacher %s <%s> id=%s\n", t.Name, t.Email, t.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (e *env) classListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List classes with their student counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(cmd.Context(), func(st attendance.Store) error {
				roster := attendance.NewRoster(st, e.log)
				classes, err := roster.ListClasses(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tGRADE\tYEAR\tSTUDENTS")
				for _, c := range classes {
					students, err := roster.ListStudents(cmd.Context(), c.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Grade, c.AcademicYear, len(students))
				}
				return w.Flush()
			})
		},
	}
}

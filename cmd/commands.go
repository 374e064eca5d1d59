package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/brettbedarf/treenav/internal/util"
	"github.com/brettbedarf/treenav/navigator"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// withSession runs fn on a session for the root in args and always ends it.
func (a *app) withSession(args []string, fn func(s *navigator.Session) error) (err error) {
	s, err := a.startSession(args)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.End())
	}()
	return fn(s)
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [ROOT]",
		Short: "Print every ranked file with its rank",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args, func(s *navigator.Session) error {
				out := cmd.OutOrStdout()
				pos, err := s.Goto(0)
				for ; err == nil && pos.Resolved; pos, err = s.Next() {
					fmt.Fprintln(out, pos)
				}
				return err
			})
		},
	}
}

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [ROOT]",
		Short: "Print the number of ranked files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args, func(s *navigator.Session) error {
				n, err := s.Count()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func (a *app) newGotoCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "goto RANK [ROOT]",
		Short: "Resolve a single rank",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rank %q: %w", args[0], err)
			}
			return a.withSession(args[1:], func(s *navigator.Session) error {
				pos, err := s.Goto(rank)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pos)
				if strict {
					return pos.Err()
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when no file has the rank")
	return cmd
}

func (a *app) newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [ROOT]",
		Short: "List the root directory with entry types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args, func(s *navigator.Session) error {
				entries, err := s.List()
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s\n", e.Type, e.Name)
				}
				return nil
			})
		},
	}
}

func (a *app) newWalkCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "walk [ROOT...]",
		Short: "Go to rank 0, step forward then back, printing every position",
		Long: `walk goes to rank 0, takes --steps steps forward and the same number
back, printing each position. Several roots are walked concurrently, each in
its own session, and reported in argument order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("steps") {
				steps = a.cfg.WalkSteps
			}
			if len(args) == 0 {
				args = []string{a.cfg.Root}
			}
			return a.walkRoots(cmd.OutOrStdout(), args, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "steps to take in each direction (default from config)")
	return cmd
}

// walkRoots walks every root in its own registered session.
func (a *app) walkRoots(out io.Writer, roots []string, steps int) error {
	logger := util.GetLogger("walk")
	reg := navigator.NewRegistry()
	defer func() {
		if err := reg.EndAll(); err != nil {
			logger.Error().Err(err).Msg("Failed to end sessions")
		}
	}()

	ids := make([]uuid.UUID, len(roots))
	for i, root := range roots {
		cfg, err := a.rootFor([]string{root})
		if err != nil {
			return err
		}
		opts, err := a.options(cfg)
		if err != nil {
			return err
		}
		if ids[i], err = reg.Start(opts); err != nil {
			return err
		}
	}

	bufs := make([]bytes.Buffer, len(roots))
	errs := make([]error, len(roots))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Go(func() {
			errs[i] = reg.Do(id, func(s *navigator.Session) error {
				return walk(&bufs[i], s, steps)
			})
		})
	}
	wg.Wait()

	for i := range roots {
		if len(roots) > 1 {
			fmt.Fprintf(out, "== %s\n", roots[i])
		}
		if _, err := bufs[i].WriteTo(out); err != nil {
			return err
		}
		if errs[i] != nil {
			logger.Error().Err(errs[i]).Str("root", roots[i]).Msg("Walk failed")
		}
	}
	return errors.Join(errs...)
}

func walk(out io.Writer, s *navigator.Session, steps int) error {
	pos, err := s.Goto(0)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, pos)
	for range steps {
		if pos, err = s.Next(); err != nil {
			return err
		}
		fmt.Fprintln(out, pos)
	}
	for range steps {
		if pos, err = s.Previous(); err != nil {
			return err
		}
		fmt.Fprintln(out, pos)
	}
	return nil
}

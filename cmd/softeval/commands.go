package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystal-mush/softeval/pkg/boltstore"
	"github.com/crystal-mush/softeval/pkg/gamedb"
	"github.com/crystal-mush/softeval/pkg/validate"
)

func newEvalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression...>",
		Short: "Evaluate one expression and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), s.Eval(strings.Join(args, " ")))
			return nil
		},
	}
}

func newReplCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate expressions read from stdin interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			if opts.config != "" {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				if err := s.watch(ctx, opts.config); err != nil {
					return err
				}
			}
			return repl(s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func repl(s *session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "softeval interactive evaluator")
	fmt.Fprintf(out, "Player context: %s\n", s.ctx.Player)
	fmt.Fprintln(out, "Type softcode to evaluate; @trace on|off, @player <who>, quit to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "mush> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case strings.HasPrefix(line, "@"):
			if err := s.directive(line); err != nil {
				fmt.Fprintf(out, "  %v\n", err)
			}
			continue
		}
		fmt.Fprintln(out, s.Eval(line))
	}
}

// directive handles the REPL's @-commands.
func (s *session) directive(line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "@trace":
		switch strings.ToLower(arg) {
		case "on":
			s.setTrace(true)
		case "off":
			s.setTrace(false)
		default:
			return fmt.Errorf("usage: @trace on|off")
		}
	case "@player":
		ref, err := s.resolve(arg)
		if err != nil {
			return err
		}
		s.setPlayer(ref)
	default:
		return fmt.Errorf("unknown directive %s", cmd)
	}
	return nil
}

func newBatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file|->",
		Short: "Evaluate one expression per line, checking optional \"expr | expected\" results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open batch file: %w", err)
				}
				defer f.Close()
				in = f
			}
			failed, err := batch(s, in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d expression(s) failed", failed)
			}
			return nil
		},
	}
}

// batch evaluates each non-comment line of in and returns how many
// checked lines did not match.
func batch(s *session, in io.Reader, out io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	lineNum, failed := 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		expression, expected, checked := strings.Cut(line, " | ")
		result := s.Eval(expression)

		if !checked {
			fmt.Fprintf(out, "Line %d: %s => %s\n", lineNum, expression, result)
			continue
		}
		if result == expected {
			fmt.Fprintf(out, "[PASS] Line %d: %s\n", lineNum, expression)
			continue
		}
		failed++
		fmt.Fprintf(out, "[FAIL] Line %d: %s\n", lineNum, expression)
		fmt.Fprintf(out, "  Expected: %s\n", expected)
		fmt.Fprintf(out, "  Got:      %s\n", result)
	}
	return failed, scanner.Err()
}

func newSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <object> <attribute> [value...]",
		Short: "Store an attribute value in the database; no value clears it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := s.needStore()
			if err != nil {
				return err
			}
			obj, err := s.resolve(args[0])
			if err != nil {
				return err
			}
			num, err := store.DefineAttr(args[1])
			if err != nil {
				return err
			}
			value := strings.Join(args[2:], " ")
			if err := store.SetAttr(obj, num, value); err != nil {
				return err
			}
			if value == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s cleared.\n", obj, s.db.AttrName(num))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s set.\n", obj, s.db.AttrName(num))
			}
			return nil
		},
	}
}

func newFuncCmd(opts *options) *cobra.Command {
	var privileged, preserve, noregs, noeval, remove bool

	cmd := &cobra.Command{
		Use:   "func <name> [<object>/<attribute>]",
		Short: "Define or remove a user function (@function)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := s.needStore()
			if err != nil {
				return err
			}

			name := strings.ToUpper(args[0])
			if remove {
				if err := store.DeleteUFunc(name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Function %s deleted.\n", name)
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("func %s: need <object>/<attribute>", name)
			}
			objSpec, attr, ok := strings.Cut(args[1], "/")
			if !ok || attr == "" {
				return fmt.Errorf("func %s: %q is not <object>/<attribute>", name, args[1])
			}
			obj, err := s.resolve(objSpec)
			if err != nil {
				return err
			}
			num, ok := s.db.AttrNum(attr)
			if !ok {
				return fmt.Errorf("func %s: no attribute %s", name, attr)
			}

			def := &gamedb.UFuncDef{Name: name, Obj: obj, Attr: num}
			if privileged {
				def.Flags |= gamedb.UfPriv
			}
			if preserve {
				def.Flags |= gamedb.UfPres
			}
			if noregs {
				def.Flags |= gamedb.UfNoregs
			}
			if noeval {
				def.Flags |= gamedb.UfNoEval
			}
			if err := store.PutUFunc(def); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Function %s defined.\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&privileged, "privileged", false, "Run as the defining object")
	cmd.Flags().BoolVar(&preserve, "preserve", false, "Preserve the caller's registers")
	cmd.Flags().BoolVar(&noregs, "noregs", false, "Run with an empty private register store")
	cmd.Flags().BoolVar(&noeval, "noeval", false, "Pass arguments unevaluated")
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the function")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	var asJSON, fix bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lint stored softcode for bracket, function and reference problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			v := validate.New(s.db, s.ctx.Funcs)
			v.Run()
			if fix {
				store, err := s.needStore()
				if err != nil {
					return err
				}
				if err := saveFixes(store, s.db, v.ApplyAll()); err != nil {
					return err
				}
			}

			r := validate.GenerateReport(v)
			if asJSON {
				return r.WriteJSON(cmd.OutOrStdout())
			}
			return r.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the report as JSON")
	cmd.Flags().BoolVar(&fix, "fix", false, "Apply fixable findings and save them")
	return cmd
}

// saveFixes persists objects rewritten by the validator and drops
// redirects it removed.
func saveFixes(store *boltstore.Store, db *gamedb.Database, touched []gamedb.DBRef) error {
	for _, ref := range touched {
		if obj, ok := db.Objects[ref]; ok {
			if err := store.PutObject(obj); err != nil {
				return err
			}
		}
		if _, ok := db.Redirects[ref]; !ok {
			if err := store.DeleteRedirect(ref); err != nil {
				return err
			}
		}
	}
	return nil
}

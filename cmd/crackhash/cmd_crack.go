package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"crackhash/internal/attack"
	"crackhash/internal/manager"
	"crackhash/internal/models"
	"crackhash/internal/potfile"
	"crackhash/internal/progress"
	"crackhash/internal/search"
)

// crackFlags are shared by brute, dict and mask.
type crackFlags struct {
	algorithm string
	noPotfile bool
}

func (f *crackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "digest algorithm (see 'crackhash algorithms')")
	cmd.Flags().BoolVar(&f.noPotfile, "no-potfile", false, "neither consult nor update the potfile")
	_ = cmd.MarkFlagRequired("algorithm")
}

func newBruteCmd(a *app) *cobra.Command {
	var (
		flags     crackFlags
		charset   string
		maxLength int
	)
	cmd := &cobra.Command{
		Use:   "brute <hash>",
		Short: "Try every string up to a maximum length over a character set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if charset == "" {
				return fmt.Errorf("%w: charset is empty", attack.ErrInvalidSpec)
			}
			if maxLength < 1 {
				return fmt.Errorf("%w: max length must be at least 1", attack.ErrInvalidSpec)
			}
			spec, err := attack.NewBruteForce(flags.algorithm, args[0], charset, maxLength)
			if err != nil {
				return err
			}
			return a.crack(cmd, spec, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&charset, "charset", "c", models.DefaultCharset, "characters to draw from")
	cmd.Flags().IntVarP(&maxLength, "max-length", "l", 6, "longest candidate to try")
	return cmd
}

func newDictCmd(a *app) *cobra.Command {
	var (
		flags    crackFlags
		wordlist string
		rules    bool
	)
	cmd := &cobra.Command{
		Use:   "dict <hash>",
		Short: "Try every line of a word list, optionally with mangling rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := attack.NewDictionary(flags.algorithm, args[0], wordlist, rules)
			if err != nil {
				return err
			}
			return a.crack(cmd, spec, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&wordlist, "wordlist", "w", "", "word list file, one candidate per line")
	cmd.Flags().BoolVarP(&rules, "rules", "r", false, "expand each word with case, suffix, prefix and leet variants")
	_ = cmd.MarkFlagRequired("wordlist")
	return cmd
}

func newMaskCmd(a *app) *cobra.Command {
	var (
		flags   crackFlags
		pattern string
	)
	cmd := &cobra.Command{
		Use:   "mask <hash>",
		Short: "Try every string matching a positional mask",
		Long: `Mask placeholders: ?l lowercase, ?u uppercase, ?d digit and ?s symbol.
Every other character is literal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := attack.NewMask(flags.algorithm, args[0], pattern)
			if err != nil {
				return err
			}
			return a.crack(cmd, spec, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&pattern, "mask", "m", "", "mask pattern, e.g. Pass?d?d?d?d")
	_ = cmd.MarkFlagRequired("mask")
	return cmd
}

// crack runs spec on this process and prints "digest:plaintext" when found.
func (a *app) crack(cmd *cobra.Command, spec attack.Spec, flags crackFlags) error {
	var pot *potfile.Pot
	if a.cfg.Potfile != "" && !flags.noPotfile {
		p, err := potfile.Open(a.cfg.Potfile, a.log)
		if err != nil {
			return err
		}
		defer p.Close()
		pot = p
	}

	mgr := manager.NewManager(manager.Options{
		Search: a.cfg.Search(),
		Pot:    pot,
		Logger: a.log,
	})
	sink := progress.Multi{progress.Gauge{}}
	if a.cfg.ProgressInterval > 0 {
		sink = append(sink, progress.NewLog(a.log, a.cfg.ProgressInterval))
	}

	rep, err := mgr.Crack(cmd.Context(), spec, sink)
	if err != nil {
		if rep != nil && errors.Is(err, attack.ErrInterrupted) {
			a.log.Warn("search interrupted",
				slog.Uint64("scanned", rep.Scanned),
				slog.Uint64("total", rep.Total))
		}
		return err
	}
	if rep.Outcome != search.OutcomeFound {
		return errNotFound
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", spec.Target, rep.Plaintext)
	return nil
}

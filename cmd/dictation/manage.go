package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/store"
)

func runHistory(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	clearAll := fs.Bool("clear", false, "delete every entry")
	del := fs.String("delete", "", "delete the entry with this id")
	full := fs.Bool("full", false, "print full transcripts instead of previews")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageError("unexpected argument %q", fs.Arg(0))
	}

	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	switch {
	case *clearAll:
		return st.ClearHistory(ctx)
	case *del != "":
		return st.DeleteHistory(ctx, *del)
	}

	entries, err := st.History(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(e.stderr, "No transcripts yet.")
		return nil
	}
	if *full {
		for _, h := range entries {
			fmt.Fprintf(e.stdout, "# %s  %s  %s\n%s\n\n", h.ID, h.Timestamp.Local().Format(time.DateTime), formatSeconds(h.Duration), h.Text)
		}
		return nil
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tLENGTH\tPREVIEW")
	for _, h := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.ID, h.Timestamp.Local().Format(time.DateTime), formatSeconds(h.Duration), h.Preview)
	}
	return tw.Flush()
}

func runSettings(ctx context.Context, e *env, args []string) error {
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	settings, err := st.Settings(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return usageError("expected key=value, got %q", arg)
			}
			if err := settings.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
		}
		if err := st.SaveSettings(ctx, settings); err != nil {
			return err
		}
	}

	values := settings.Values()
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 1, ' ', 0)
	for _, key := range store.SettingKeys() {
		fmt.Fprintf(tw, "%s\t= %s\n", key, values[key])
	}
	return tw.Flush()
}

func runKey(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageError("expected set, clear or show")
	}
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "set":
		var key string
		switch len(args) {
		case 1:
			fmt.Fprint(e.stderr, "API key: ")
			line, err := bufio.NewReader(e.stdin).ReadString('\n')
			if err != nil && line == "" {
				return errors.InvalidInput("key", "no key entered")
			}
			key = line
		case 2:
			key = args[1]
		default:
			return usageError("key set takes at most one value")
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return errors.InvalidInput("key", "must not be empty")
		}
		if err := st.SaveCredential(ctx, key); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, "API key saved:", store.MaskCredential(key))
	case "clear":
		if err := st.DeleteCredential(ctx); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, "API key removed.")
	case "show":
		key, err := st.Credential(ctx)
		if err != nil {
			return err
		}
		if key == "" {
			fmt.Fprintln(e.stdout, "No API key stored.")
			return nil
		}
		fmt.Fprintln(e.stdout, store.MaskCredential(key))
	default:
		return usageError("unknown key action %q", args[0])
	}
	return nil
}

func formatSeconds(s float64) string {
	if s <= 0 {
		return "-"
	}
	return formatElapsed(time.Duration(s * float64(time.Second)))
}

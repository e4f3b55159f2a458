package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"barberbot/internal/datetime"
)

func newParseCmd() *cobra.Command {
	var (
		ref       string
		dayOffset int
	)

	cmd := &cobra.Command{
		Use:   "parse <texto>",
		Short: "Muestra cómo se interpreta una fecha/hora escrita por un cliente",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, strings.Join(args, " "), ref, dayOffset)
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "instante de referencia (2006-01-02T15:04:05-07:00), por defecto ahora")
	cmd.Flags().IntVar(&dayOffset, "day", -1, "día pendiente (0 hoy, 1 mañana, 2 pasado mañana)")
	return cmd
}

func runParse(cmd *cobra.Command, text, ref string, dayOffset int) error {
	now := time.Now().In(datetime.Zone)
	if ref != "" {
		t, err := time.Parse(datetime.CanonicalLayout, ref)
		if err != nil {
			return fmt.Errorf("referencia inválida: %w", err)
		}
		now = t.In(datetime.Zone)
	}

	var offset *int
	if dayOffset >= 0 {
		offset = &dayOffset
	}

	out := cmd.OutOrStdout()
	moment, ok := datetime.Parse(text, now, offset)
	if !ok {
		fmt.Fprintln(out, "sin coincidencia")
		return nil
	}

	fmt.Fprintf(out, "canonical: %s\n", moment.Canonical)
	fmt.Fprintf(out, "display:   %s\n", moment.Display)
	fmt.Fprintf(out, "hora:      %t\n", moment.HasTime)
	if moment.DayOffset != nil {
		fmt.Fprintf(out, "día:       %d\n", *moment.DayOffset)
	}
	return nil
}

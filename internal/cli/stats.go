package cli

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/mbx/modelbox/internal/similar"
)

// similarCmd looks up which other owners hold the same codes as the
// working list. A later command invalidates the result of an earlier one
// that is still in flight.
func (a *App) similarCmd(ctx context.Context) {
	if a.entries == nil {
		if err := a.load(ctx); err != nil {
			log.Println(err.Error())
			return
		}
	}

	codes := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		codes = append(codes, e.Code)
	}

	ticket := a.guard.Next()
	matches, err := a.index.FindSimilar(ctx, codes, a.session.EffectiveOwner(ctx))
	if !a.guard.Current(ticket) {
		return
	}
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(matches) == 0 {
		fmt.Println("No shared codes with other catalogs")
		return
	}

	keys := make([]string, 0, len(matches))
	for code := range matches {
		keys = append(keys, code)
	}
	sort.Strings(keys)

	for _, code := range keys {
		fmt.Printf("%s:\n", code)
		for _, m := range matches[code] {
			fmt.Printf("  %s: %s (%s)\n", m.Label, m.Name, m.Year)
		}
	}
}

// compareCmd summarizes the code overlap with another owner's catalog.
func (a *App) compareCmd(ctx context.Context, arg string) {
	// Entries belong to the effective owner, so that owner is the one
	// left out of the candidate list.
	options := a.directory.Options()
	others := options[:0:0]
	effective := a.session.EffectiveOwner(ctx)
	for _, opt := range options {
		if opt.ID != effective {
			others = append(others, opt)
		}
	}

	if arg == "" {
		for i, opt := range others {
			fmt.Printf("%2d. %s\n", i+1, opt.Label)
		}
		fmt.Println("Usage: compare <number>")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(others) {
		fmt.Println("Usage: compare <number>")
		return
	}
	other := others[n-1]

	if a.entries == nil {
		if err := a.load(ctx); err != nil {
			log.Println(err.Error())
			return
		}
	}

	ticket := a.guard.Next()
	theirs, err := a.engine.ListOwner(ctx, other.ID)
	if !a.guard.Current(ticket) {
		return
	}
	if err != nil {
		log.Println(err.Error())
		return
	}

	result := similar.Compare(a.entries, theirs)
	fmt.Printf("Shared codes: %d (%d%% of yours)\n", result.SharedCodes, result.SharedPercent)
	fmt.Printf("Only yours: %d, only %s: %d\n", result.OnlyMine, other.Label, result.OnlyOther)
	for _, sc := range result.TopShared {
		fmt.Printf("  %-10s %d/%d\n", sc.Code, sc.Mine, sc.Other)
	}
}

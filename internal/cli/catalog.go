package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mbx/modelbox/internal/models"
)

// load pulls the effective owner's catalog into the working list.
func (a *App) load(ctx context.Context) error {
	entries, err := a.engine.List(ctx)
	if err != nil {
		return err
	}
	a.entries = entries
	a.dirty.Store(false)
	return nil
}

func (a *App) list(ctx context.Context, search string) {
	if a.entries == nil {
		if err := a.load(ctx); err != nil {
			log.Println(err.Error())
			return
		}
	}

	shown := 0
	for i, e := range a.entries {
		if !e.MatchesSearch(search) {
			continue
		}
		shown++
		fmt.Printf("%3d. %-10s %-8s %s\n", i+1, e.Code, e.Year, e.Name)
		if url := a.engine.ImageURL(e.Image); url != "" {
			fmt.Printf("     %s\n", url)
		}
	}
	fmt.Printf("%d of %d entries\n", shown, len(a.entries))
}

// add prompts for the four required fields plus the optional link and
// appends the entry to the working list. Nothing is sent until "save".
func (a *App) add(ctx context.Context) error {
	var e models.Entry
	var err error

	if e.Name, err = getSimpleText(a.reader, "Name", os.Stdout); err != nil {
		return err
	}
	if e.Year, err = getSimpleText(a.reader, "Year", os.Stdout); err != nil {
		return err
	}
	if e.Code, err = getSimpleText(a.reader, "Code", os.Stdout); err != nil {
		return err
	}
	if e.Image, err = getSimpleText(a.reader, "Image file", os.Stdout); err != nil {
		return err
	}
	if e.Link, err = getSimpleText(a.reader, "Link (optional)", os.Stdout); err != nil {
		return err
	}

	e = e.Trimmed()
	if !e.Valid() {
		fmt.Println("Name, year, code and image are all required")
		return nil
	}

	a.entries = append(a.entries, e)
	fmt.Printf("Added. %d entries pending save\n", len(a.entries))
	return nil
}

func (a *App) remove(index string) {
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 || n > len(a.entries) {
		fmt.Println("Usage: remove <number from list>")
		return
	}
	removed := a.entries[n-1]
	a.entries = append(a.entries[:n-1], a.entries[n:]...)
	fmt.Printf("Removed %s\n", removed.Name)
}

// stage reads a local image file into the import cache so the next save
// can resolve it by its base name.
func (a *App) stage(path string) {
	body, err := os.ReadFile(path)
	if err != nil {
		log.Println(err.Error())
		return
	}
	name := filepath.Base(path)
	a.staged[name] = body
	fmt.Printf("Staged %s (%d bytes)\n", name, len(body))
}

// save pushes the working list as the new remote state of the caller's
// catalog, printing each stage as the engine reports it.
func (a *App) save(ctx context.Context) {
	if a.entries == nil {
		fmt.Println("Nothing loaded; run 'list' or 'add' first")
		return
	}

	result, err := a.engine.Save(ctx, a.entries, func(p models.Progress) {
		switch p.Stage {
		case models.StagePrepare:
			fmt.Printf("preparing %d/%d %s\n", p.Current, p.Total, p.Image)
		case models.StageUpsert:
			fmt.Printf("uploading %d rows\n", p.Total)
		case models.StageCleanupStorage:
			fmt.Printf("removing %d stale images\n", p.Total)
		}
	})
	if err != nil {
		log.Println(err.Error())
		return
	}

	fmt.Printf("Saved %d entries, remote count %d\n", result.SavedCount, result.FinalCount)
	if err := a.load(ctx); err != nil {
		log.Println(err.Error())
	}
}

// view switches the effective owner. "view" alone lists options, "view me"
// returns to the caller's own catalog.
func (a *App) view(ctx context.Context, arg string) {
	options := a.directory.Refresh(ctx)

	if arg == "" {
		for i, opt := range options {
			marker := " "
			if opt.ID == a.session.EffectiveOwner(ctx) {
				marker = "*"
			}
			fmt.Printf("%s %2d. %s\n", marker, i+1, opt.Label)
		}
		fmt.Println("Usage: view <number> | view me")
		return
	}

	if arg == "me" {
		if err := a.session.SetEffectiveOwner(ctx, ""); err != nil {
			log.Println(err.Error())
			return
		}
		fmt.Println("Viewing your own catalog")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(options) {
		fmt.Println("Usage: view <number> | view me")
		return
	}

	owner := options[n-1]
	if err := a.session.SetEffectiveOwner(ctx, owner.ID); err != nil {
		log.Println(err.Error())
		return
	}
	if a.session.IsReadOnlyView(ctx) {
		fmt.Printf("Viewing %s (read-only)\n", owner.Label)
	} else {
		fmt.Println("Viewing your own catalog")
	}
}

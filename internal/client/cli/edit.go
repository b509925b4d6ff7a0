package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rentsaathi/listingsync/internal/client/ingest"
	"github.com/rentsaathi/listingsync/internal/client/listings"
	"github.com/rentsaathi/listingsync/internal/client/models"
)

// Edit prompts for new values of an owned listing. An empty answer keeps
// the current value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := requireArg(args, "edit <id>")
	if err != nil {
		return err
	}
	cur, ok := a.listings.Get(id)
	if !ok {
		return listings.ErrNotFound
	}

	e := models.Edit{ID: id}
	ask := func(label, current string) (*string, error) {
		v, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", label, current), a.out)
		if err != nil || v == "" {
			return nil, err
		}
		return &v, nil
	}

	if e.Title, err = ask("Title", cur.Title); err != nil {
		return err
	}
	if e.FlatType, err = ask("Flat type", cur.FlatType); err != nil {
		return err
	}
	price, err := ask("Monthly rent", strconv.FormatFloat(cur.Price, 'f', -1, 64))
	if err != nil {
		return err
	}
	if price != nil {
		p, err := parsePrice(*price)
		if err != nil {
			return err
		}
		e.Price = &p
	}
	if e.Locality, err = ask("Locality", cur.Locality); err != nil {
		return err
	}
	if e.ContactPhone, err = ask("Contact phone", cur.ContactPhone); err != nil {
		return err
	}
	amenities, err := ask("Amenities", strings.Join(cur.Amenities, ", "))
	if err != nil {
		return err
	}
	if amenities != nil {
		e.Amenities = splitList(*amenities)
	}

	if len(cur.Images) > 0 {
		for i, img := range cur.Images {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, img)
		}
		remove, err := getSimpleText(a.reader, "Image numbers to remove (comma separated)", a.out)
		if err != nil {
			return err
		}
		for _, s := range splitList(remove) {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > len(cur.Images) {
				return fmt.Errorf("invalid image number %q", s)
			}
			e.RemoveImages = append(e.RemoveImages, cur.Images[n-1])
		}
	}
	if e.AddImages, err = getLines(a.reader, "Images to add, one per line", a.out); err != nil {
		return err
	}

	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	l, err := a.listings.Update(opCtx, e)
	var batch *ingest.BatchError
	if errors.As(err, &batch) && l.ID != "" {
		fmt.Fprintf(a.out, "Listing %s saved without %d image(s)\n", l.ID, len(batch.Failures))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing %s saved\n", l.ID)
	return nil
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	id, err := requireArg(args, "toggle <id>")
	if err != nil {
		return err
	}
	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	l, err := a.listings.Toggle(opCtx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing %s is now %s\n", l.ID, l.Status)
	return nil
}

func (a *App) SetStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: status <id> active|inactive")
	}
	s, ok := models.ParseStatus(args[1])
	if !ok {
		return fmt.Errorf("unknown status %q", args[1])
	}
	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	l, err := a.listings.SetStatus(opCtx, args[0], s)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing %s is now %s\n", l.ID, l.Status)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := requireArg(args, "delete <id>")
	if err != nil {
		return err
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete %s? (y/n)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		return nil
	}
	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.listings.Delete(opCtx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing %s deleted\n", id)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/rentsaathi/listingsync/internal/client/models"
)

// New collects a listing draft, stores it locally and offers to publish it.
func (a *App) New(ctx context.Context) error {
	d := models.NewDraft()
	if err := a.inputDraft(d); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := a.drafts.Save(ctx, d); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Draft %s saved\n", d.TempID)

	answer, err := getSimpleText(a.reader, "Publish now? (y/n)", a.out)
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return a.Submit(ctx, []string{d.TempID})
	}
	return nil
}

func (a *App) inputDraft(d *models.Draft) error {
	var err error
	if d.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (flat/hostel/room/pg)", a.out)
	if err != nil {
		return err
	}
	d.Category = models.Category(strings.ToLower(category))
	if d.Category == models.CategoryFlat {
		if d.FlatType, err = getSimpleText(a.reader, "Flat type (e.g. 2 BHK)", a.out); err != nil {
			return err
		}
	}
	price, err := getSimpleText(a.reader, "Monthly rent", a.out)
	if err != nil {
		return err
	}
	if d.Price, err = parsePrice(price); err != nil {
		return err
	}
	if d.City, err = getSimpleText(a.reader, "City", a.out); err != nil {
		return err
	}
	if d.Locality, err = getSimpleText(a.reader, "Locality", a.out); err != nil {
		return err
	}
	if d.ContactPhone, err = getSimpleText(a.reader, "Contact phone", a.out); err != nil {
		return err
	}
	amenities, err := getSimpleText(a.reader, "Amenities (comma separated)", a.out)
	if err != nil {
		return err
	}
	d.Amenities = splitList(amenities)

	images, err := getLines(a.reader, "Image files or URLs, one per line", a.out)
	if err != nil {
		return err
	}
	d.Images = images
	return nil
}

func (a *App) Drafts(ctx context.Context) error {
	ds, err := a.drafts.List(ctx)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		fmt.Fprintln(a.out, "No drafts.")
		return nil
	}
	for _, d := range ds {
		printDraft(a.out, d)
	}
	return nil
}

// Submit publishes a stored draft. On failure the draft is kept with every
// image reference obtained so far, so the next attempt only uploads the
// rest. The draft is removed once the listing exists remotely.
func (a *App) Submit(ctx context.Context, args []string) error {
	tempID, err := requireArg(args, "submit <draft id>")
	if err != nil {
		return err
	}
	d, err := a.drafts.Get(ctx, tempID)
	if err != nil {
		return err
	}

	opCtx, cancel := a.withTimeout(ctx)
	l, err := a.listings.Create(opCtx, d)
	cancel()
	if err != nil {
		d.TempID = tempID
		if saveErr := a.drafts.Save(ctx, d); saveErr != nil {
			a.log.Error(ctx, "keeping draft failed", "draft_id", tempID, "error", saveErr)
		}
		return err
	}

	if err := a.drafts.Delete(ctx, tempID); err != nil {
		a.log.Warn(ctx, "published draft not removed", "draft_id", tempID, "error", err)
	}
	fmt.Fprintf(a.out, "Listing %s published\n", l.ID)
	return nil
}

// Discard drops a draft without touching the remote store.
func (a *App) Discard(ctx context.Context, args []string) error {
	tempID, err := requireArg(args, "discard <draft id>")
	if err != nil {
		return err
	}
	if err := a.drafts.Delete(ctx, tempID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Draft %s discarded\n", tempID)
	return nil
}

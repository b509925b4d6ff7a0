package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rentsaathi/listingsync/internal/client/listings"
	"github.com/rentsaathi/listingsync/internal/client/models"
)

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.listings.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d listing(s) loaded\n", len(a.listings.Listings()))
	return nil
}

// reload refreshes the feed before a screen renders. When the load fails
// the last known set is shown with a warning.
func (a *App) reload(ctx context.Context) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.listings.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "screen shows cached listings", "error", err)
		fmt.Fprintf(a.out, "warning: showing last loaded listings. %s\n", explain(err))
	}
}

// List prints one of the views: mine (default when signed in), public,
// all, or bhk N.
func (a *App) List(ctx context.Context, args []string) error {
	view := "public"
	if a.isLoggedIn() {
		view = "mine"
	}
	if len(args) > 0 {
		view = args[0]
	}

	a.reload(ctx)
	switch view {
	case "mine":
		if !a.isLoggedIn() {
			return listings.ErrIdentityUnavailable
		}
		printListings(a.out, a.listings.Mine())
	case "public":
		printListings(a.out, a.listings.PubliclyVisible())
	case "all":
		printListings(a.out, a.listings.Listings())
	case "bhk":
		if len(args) < 2 {
			return fmt.Errorf("usage: list bhk <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid bedroom count %q", args[1])
		}
		printListings(a.out, a.listings.ByBhk(n))
	default:
		return fmt.Errorf("usage: list [mine|public|all|bhk <n>]")
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := requireArg(args, "show <id>")
	if err != nil {
		return err
	}
	a.reload(ctx)
	l, ok := a.listings.Get(id)
	if !ok {
		return listings.ErrNotFound
	}
	printListing(a.out, l)
	return nil
}

// Search prompts for filter fields; empty answers leave a field unset.
func (a *App) Search(ctx context.Context) error {
	var f listings.Filter
	var err error

	if f.Query, err = getSimpleText(a.reader, "Search text", a.out); err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (flat/hostel/room/pg)", a.out)
	if err != nil {
		return err
	}
	f.Category = models.Category(category)

	minPrice, err := getSimpleText(a.reader, "Min price", a.out)
	if err != nil {
		return err
	}
	if f.MinPrice, err = parsePrice(minPrice); err != nil {
		return err
	}
	maxPrice, err := getSimpleText(a.reader, "Max price", a.out)
	if err != nil {
		return err
	}
	if f.MaxPrice, err = parsePrice(maxPrice); err != nil {
		return err
	}
	if f.Locality, err = getSimpleText(a.reader, "Locality", a.out); err != nil {
		return err
	}
	amenities, err := getSimpleText(a.reader, "Amenities (comma separated)", a.out)
	if err != nil {
		return err
	}
	f.Amenities = splitList(amenities)

	bhk, err := getSimpleText(a.reader, "BHK", a.out)
	if err != nil {
		return err
	}
	if bhk != "" {
		if f.Bhk, err = strconv.Atoi(bhk); err != nil {
			return fmt.Errorf("invalid bedroom count %q", bhk)
		}
	}

	a.reload(ctx)
	printListings(a.out, a.listings.Search(f))
	return nil
}

func requireArg(args []string, usage string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}

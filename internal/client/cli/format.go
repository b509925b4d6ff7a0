package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rentsaathi/listingsync/internal/client/ingest"
	"github.com/rentsaathi/listingsync/internal/client/listings"
	"github.com/rentsaathi/listingsync/internal/client/models"
)

func printListings(w io.Writer, ls []models.Listing) {
	if len(ls) == 0 {
		fmt.Fprintln(w, "No listings.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tTYPE\tPRICE\tLOCALITY\tSTATUS\tIMAGES")
	for _, l := range ls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			l.ID, l.Title, l.Category, l.FlatType, formatPrice(l.Price), place(l), l.Status, len(l.Images))
	}
	_ = tw.Flush()
}

func printListing(w io.Writer, l models.Listing) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", l.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", l.Title)
	fmt.Fprintf(tw, "Category:\t%s\n", l.Category)
	if l.FlatType != "" {
		fmt.Fprintf(tw, "Type:\t%s\n", l.FlatType)
	}
	fmt.Fprintf(tw, "Price:\t%s\n", formatPrice(l.Price))
	fmt.Fprintf(tw, "Location:\t%s\n", place(l))
	fmt.Fprintf(tw, "Contact:\t%s\n", l.ContactPhone)
	if len(l.Amenities) > 0 {
		fmt.Fprintf(tw, "Amenities:\t%s\n", strings.Join(l.Amenities, ", "))
	}
	fmt.Fprintf(tw, "Status:\t%s\n", l.Status)
	fmt.Fprintf(tw, "Owner:\t%s\n", l.OwnerID)
	for i, img := range l.Images {
		fmt.Fprintf(tw, "Image %d:\t%s\n", i+1, img)
	}
	_ = tw.Flush()
}

func printDraft(w io.Writer, d *models.Draft) {
	pending := len(d.PendingImages())
	fmt.Fprintf(w, "%s  %q  %s  %s  images=%d pending=%d\n",
		d.TempID, d.Title, d.Category, formatPrice(d.Price), len(d.Images), pending)
}

func place(l models.Listing) string {
	switch {
	case l.Locality != "" && l.City != "":
		return l.Locality + ", " + l.City
	case l.City != "":
		return l.City
	}
	return l.Locality
}

func formatPrice(p float64) string {
	return "₹" + strconv.FormatFloat(p, 'f', -1, 64)
}

// explain turns an operation error into what the user should do about it.
func explain(err error) string {
	var (
		batch   *ingest.BatchError
		persist *listings.PersistenceError
		syncErr *listings.SyncError
	)
	switch {
	case errors.Is(err, listings.ErrIdentityUnavailable):
		return "You need to sign in first (login)."
	case errors.Is(err, listings.ErrForbidden):
		return "That listing belongs to someone else."
	case errors.Is(err, listings.ErrNotFound):
		return "No such listing."
	case errors.Is(err, models.ErrInvalidDraft):
		return err.Error()
	case errors.As(err, &batch):
		lines := []string{fmt.Sprintf("%d image(s) could not be uploaded:", len(batch.Failures))}
		for _, f := range batch.Failures {
			lines = append(lines, "  "+f.Error())
		}
		return strings.Join(lines, "\n")
	case errors.As(err, &persist):
		msg := "Could not save: " + persist.Cause.Error()
		if persist.RolledBack {
			msg += " (your change was undone)"
		}
		if persist.Retryable {
			msg += ". Try again."
		}
		return msg
	case errors.As(err, &syncErr):
		return "Could not load listings: " + syncErr.Cause.Error()
	}
	return "error: " + err.Error()
}

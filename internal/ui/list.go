package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

var (
	_ list.Item = requestItem{}
	_ list.Item = priceItem{}
)

// requestItem wraps [models.TrackingRequest] to implement [list.Item].
type requestItem struct {
	request *models.TrackingRequest
}

func (i requestItem) FilterValue() string { return i.request.Route() }
func (i requestItem) Title() string {
	status := ""
	if !i.request.Active() {
		status = " (paused)"
	}
	return fmt.Sprintf("%s • %s%s", i.request.Route(), i.request.DepartureDate().Format("2006-01-02"), status)
}
func (i requestItem) Description() string {
	if current := i.request.CurrentPrice(); current != nil {
		desc := shared.FormatPrice(*current, i.request.Currency())
		if baseline := i.request.BaselinePrice(); baseline != nil && *baseline > 0 {
			change := (*current - *baseline) / *baseline * 100
			desc = fmt.Sprintf("%s • %+.1f%% since tracking began", desc, change)
		}
		return desc
	}
	return "no price recorded yet"
}

// priceItem wraps [models.PricePoint] to implement [list.Item].
type priceItem struct {
	point *models.PricePoint
}

func (i priceItem) FilterValue() string { return i.point.CheckedAt().Format("2006-01-02 15:04") }
func (i priceItem) Title() string {
	return shared.FormatPrice(i.point.Price(), i.point.Currency())
}
func (i priceItem) Description() string {
	desc := i.point.CheckedAt().Format("2006-01-02 15:04")
	if i.point.BookingURL() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.point.BookingURL())
	}
	return desc
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"
	"hotel-booking-client/pkg/logger"

	"github.com/tidwall/gjson"
)

const maxResponseSize = 1 << 20

// HTTPBookingGateway talks to the booking gateway REST API
type HTTPBookingGateway struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPBookingGateway creates a gateway client. client carries the timeout
// and, when configured, OAuth2 credentials.
func NewHTTPBookingGateway(baseURL string, client *http.Client, logger logger.Logger) repository.BookingGateway {
	return &HTTPBookingGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// CreateBooking submits a booking draft
func (g *HTTPBookingGateway) CreateBooking(ctx context.Context, draft entity.BookingDraft) (*entity.CreatedBooking, error) {
	body, err := g.do(ctx, http.MethodPost, "/bookings", draft)
	if err != nil {
		return nil, err
	}

	root := unwrap(gjson.ParseBytes(body))
	created := &entity.CreatedBooking{
		BookingID: entity.BookingID(root.Get("bookingId").String()),
		Status:    root.Get("status").String(),
	}

	g.logger.Info("Booking created", "bookingId", created.BookingID, "status", created.Status)
	return created, nil
}

// GetBooking fetches the current booking snapshot
func (g *HTTPBookingGateway) GetBooking(ctx context.Context, bookingID entity.BookingID) (*entity.BookingSnapshot, error) {
	body, err := g.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(bookingID.String()), nil)
	if err != nil {
		return nil, err
	}

	snapshot := parseSnapshot(body)
	if snapshot.BookingID == "" {
		snapshot.BookingID = bookingID
	}
	return snapshot, nil
}

// Pay submits the payment for a confirmed booking
func (g *HTTPBookingGateway) Pay(ctx context.Context, req entity.PaymentRequest) (*entity.PaymentResult, error) {
	body, err := g.do(ctx, http.MethodPost, "/bookings/pay", req)
	if err != nil {
		return nil, err
	}

	root := unwrap(gjson.ParseBytes(body))
	result := &entity.PaymentResult{
		BookingID:          entity.BookingID(root.Get("bookingId").String()),
		FinalPrice:         root.Get("finalPrice").Float(),
		DiscountPercentage: discountOf(root),
	}
	if result.BookingID == "" {
		result.BookingID = req.BookingID
	}

	g.logger.Info("Payment accepted", "bookingId", result.BookingID, "finalPrice", result.FinalPrice)
	return result, nil
}

// CancelBooking cancels a booking
func (g *HTTPBookingGateway) CancelBooking(ctx context.Context, bookingID entity.BookingID) error {
	payload := map[string]string{"bookingId": bookingID.String()}
	if _, err := g.do(ctx, http.MethodPost, "/bookings/cancel", payload); err != nil {
		return err
	}
	g.logger.Info("Booking cancelled", "bookingId", bookingID)
	return nil
}

// SearchHotels lists hotels available for the search
func (g *HTTPBookingGateway) SearchHotels(ctx context.Context, search entity.HotelSearch) ([]entity.Hotel, error) {
	q := url.Values{}
	if search.City != "" {
		q.Set("city", search.City)
	}
	if search.CheckIn != "" {
		q.Set("checkIn", search.CheckIn)
	}
	if search.CheckOut != "" {
		q.Set("checkOut", search.CheckOut)
	}
	if search.Guests > 0 {
		q.Set("guests", strconv.Itoa(search.Guests))
	}
	path := "/hotels/search"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := g.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	items := collection(gjson.ParseBytes(body))
	hotels := make([]entity.Hotel, 0, len(items))
	for _, item := range items {
		item = unwrap(item)
		hotels = append(hotels, entity.Hotel{
			HotelID:       item.Get("hotelId").String(),
			Name:          item.Get("name").String(),
			City:          item.Get("city").String(),
			Address:       item.Get("address").String(),
			PricePerNight: item.Get("pricePerNight").Float(),
		})
	}
	return hotels, nil
}

func (g *HTTPBookingGateway) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := parseError(resp.StatusCode, body)
		g.logger.Warn("Gateway returned error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", gwErr.Message)
		return nil, gwErr
	}
	return body, nil
}

// parseError reads {message, errors} where errors is a list of
// {field, message} objects, a field to message map, or a list of strings.
func parseError(status int, body []byte) *entity.GatewayError {
	gwErr := &entity.GatewayError{StatusCode: status}
	if !gjson.ValidBytes(body) {
		return gwErr
	}

	root := gjson.ParseBytes(body)
	gwErr.Message = root.Get("message").String()
	if gwErr.Message == "" {
		gwErr.Message = root.Get("error").String()
	}

	errs := root.Get("errors")
	switch {
	case errs.IsArray():
		errs.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				gwErr.FieldErrors = append(gwErr.FieldErrors, entity.FieldError{
					Field:   v.Get("field").String(),
					Message: firstNonEmpty(v.Get("message").String(), v.Get("defaultMessage").String()),
				})
			} else {
				gwErr.FieldErrors = append(gwErr.FieldErrors, entity.FieldError{Message: v.String()})
			}
			return true
		})
	case errs.IsObject():
		errs.ForEach(func(k, v gjson.Result) bool {
			gwErr.FieldErrors = append(gwErr.FieldErrors, entity.FieldError{Field: k.String(), Message: v.String()})
			return true
		})
	}
	return gwErr
}

func parseSnapshot(body []byte) *entity.BookingSnapshot {
	root := unwrap(gjson.ParseBytes(body))
	return &entity.BookingSnapshot{
		BookingID:          entity.BookingID(root.Get("bookingId").String()),
		HotelID:            root.Get("hotelId").String(),
		Status:             strings.ToUpper(root.Get("status").String()),
		CustomerName:       root.Get("customerName").String(),
		CustomerEmail:      root.Get("customerEmail").String(),
		CheckIn:            root.Get("checkIn").String(),
		CheckOut:           root.Get("checkOut").String(),
		Guests:             int(root.Get("guests").Int()),
		FinalPrice:         root.Get("finalPrice").Float(),
		DiscountPercentage: discountOf(root),
		Recommendations:    recommendationsOf(root.Get("recommendations")),
		RejectionReason:    root.Get("rejectionReason").String(),
	}
}

// discountOf accepts both discountPercentage and discount
func discountOf(root gjson.Result) float64 {
	if v := root.Get("discountPercentage"); v.Exists() && v.Type != gjson.Null {
		return v.Float()
	}
	return root.Get("discount").Float()
}

// recommendationsOf accepts a JSON array or a JSON array encoded as a string
func recommendationsOf(v gjson.Result) []string {
	if v.Type == gjson.String {
		v = gjson.Parse(v.Str)
	}
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// unwrap strips a HAL "content" wrapper
func unwrap(v gjson.Result) gjson.Result {
	if c := v.Get("content"); c.IsObject() {
		return c
	}
	return v
}

// collection returns the items of a plain array, a HAL _embedded list or a page content list
func collection(root gjson.Result) []gjson.Result {
	if root.IsArray() {
		return root.Array()
	}
	var items []gjson.Result
	root.Get("_embedded").ForEach(func(_, v gjson.Result) bool {
		if v.IsArray() {
			items = v.Array()
			return false
		}
		return true
	})
	if items != nil {
		return items
	}
	if c := root.Get("content"); c.IsArray() {
		return c.Array()
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

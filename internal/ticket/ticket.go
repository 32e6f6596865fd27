// Package ticket renders booking documents: a travel ticket for transport
// bookings and a welcome card for hotel stays, both carrying a signed QR code.
package ticket

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/asrs-travel/service-booking/internal/domain/booking"
)

const qrSize = 256

// Renderer produces ticket PDFs.
type Renderer struct {
	secret []byte
	now    func() time.Time
}

// NewRenderer creates a renderer signing QR payloads with secret.
func NewRenderer(secret string) *Renderer {
	return &Renderer{secret: []byte(secret), now: time.Now}
}

func (r *Renderer) sign(data string) string {
	h := hmac.New(sha256.New, r.secret)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Payload returns "ref|user|signature" for the QR code.
func (r *Renderer) Payload(ref string, userID uuid.UUID) string {
	data := fmt.Sprintf("%s|%s", ref, userID)
	return fmt.Sprintf("%s|%s", data, r.sign(data))
}

// Verify checks a scanned payload and returns the booking it names.
func (r *Renderer) Verify(payload string) (string, uuid.UUID, bool) {
	i := strings.LastIndex(payload, "|")
	if i < 0 {
		return "", uuid.Nil, false
	}
	data, sig := payload[:i], payload[i+1:]
	if !hmac.Equal([]byte(sig), []byte(r.sign(data))) {
		return "", uuid.Nil, false
	}
	ref, user, ok := strings.Cut(data, "|")
	if !ok {
		return "", uuid.Nil, false
	}
	userID, err := uuid.Parse(user)
	if err != nil {
		return "", uuid.Nil, false
	}
	return ref, userID, true
}

// Filename is the download name for a booking's document.
func Filename(b *booking.Booking) string {
	return "ticket-" + b.BookingRef() + ".pdf"
}

// Render builds the PDF for b.
func (r *Renderer) Render(b *booking.Booking) ([]byte, error) {
	qrPNG, err := qrcode.Encode(r.Payload(b.BookingRef(), b.UserID()), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Booking "+b.BookingRef(), true)
	pdf.AddPage()

	it := b.Itinerary()
	pdf.SetFont("Arial", "B", 18)
	if it.ServiceType.IsStay() {
		pdf.Cell(0, 12, tr(fmt.Sprintf("Welcome to %s", it.ToPlace)))
	} else {
		pdf.Cell(0, 12, tr(fmt.Sprintf("%s Ticket", it.ServiceType)))
	}
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	for _, row := range rows(b) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(45, 8, tr(row[0]))
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 8, tr(row[1]))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 45, 45, false, imageOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Issued %s. Present this QR code at check-in.",
		r.now().UTC().Format("02 Jan 2006 15:04 MST"))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func rows(b *booking.Booking) [][2]string {
	it := b.Itinerary()
	out := [][2]string{
		{"Booking Ref", b.BookingRef()},
		{"Status", strings.ToUpper(b.Status().String())},
		{stayLabel(it, "Hotel", "Service"), it.ItemName},
	}
	if !it.ServiceType.IsStay() {
		out = append(out, [2]string{"From", it.FromPlace})
	}
	out = append(out,
		[2]string{stayLabel(it, "City", "To"), it.ToPlace},
		[2]string{stayLabel(it, "Check-in", "Date"), it.TravelDate},
	)
	if it.ClassType != "" {
		out = append(out, [2]string{stayLabel(it, "Room Type", "Class"), it.ClassType})
	}
	if it.SeatOrRoom != "" {
		out = append(out, [2]string{stayLabel(it, "Room", "Seat"), it.SeatOrRoom})
	}
	out = append(out,
		[2]string{stayLabel(it, "Guests", "Passengers"), fmt.Sprintf("%d", b.PassengerCount())},
	)
	if names := booking.JoinTravelerNames(b.TravelerNames()); names != "" {
		out = append(out, [2]string{"Travelers", names})
	}
	out = append(out,
		[2]string{"Amount Paid", fmt.Sprintf("INR %d", b.Price())},
		[2]string{"Payment", b.PaymentMethod()},
	)
	return out
}

func stayLabel(it booking.Itinerary, stay, travel string) string {
	if it.ServiceType.IsStay() {
		return stay
	}
	return travel
}

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf/v2"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/storage"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/pkg/utils"
)

const (
	maxImageBytes = 10 << 20
	qrSize        = 300
)

var allowedImageExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// DocumentService produces and stores the QR code, invoice PDF and photos
// of a shipment.
type DocumentService struct {
	cfg   *config.Config
	store storage.Store
}

func NewDocumentService(cfg *config.Config, store storage.Store) *DocumentService {
	return &DocumentService{cfg: cfg, store: store}
}

// QRCode encodes the public tracking URL as a PNG
func (d *DocumentService) QRCode(tracking string) ([]byte, error) {
	code, err := qr.Encode(d.cfg.TrackingURL(tracking), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	code, err = barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InvoicePDF renders the shipment invoice
func (d *DocumentService) InvoicePDF(s *models.Shipment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(180, 10, "EukExpress Logistics", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(180, 6, "Invoice "+s.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(180, 6, "Tracking "+s.TrackingNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(180, 6, "Date "+s.CreatedAt.In(timeutil.WAT).Format(timeutil.DateLayout), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Sender", "1", 0, "L", true, 0, "")
	pdf.CellFormat(90, 8, "Recipient", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{s.SenderName, s.RecipientName},
		{s.SenderEmail, s.RecipientEmail},
		{s.SenderPhone, s.RecipientPhone},
		{s.SenderAddress, s.RecipientAddress},
	}
	for _, r := range rows {
		pdf.CellFormat(90, 7, tr(r[0]), "LR", 0, "L", false, 0, "")
		pdf.CellFormat(90, 7, tr(r[1]), "LR", 1, "L", false, 0, "")
	}
	pdf.CellFormat(180, 0, "", "T", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(180, 8, "Shipment", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	eta := s.EstimatedDeliveryDate
	sent := s.SendingDate
	details := [][2]string{
		{"Route", s.OriginLocation + " -> " + s.DestinationLocation},
		{"Goods", s.GoodsDescription},
		{"Weight", fmt.Sprintf("%.2f kg", s.WeightKg)},
		{"Dimensions", fmt.Sprintf("%.0f x %.0f x %.0f cm", s.Dimensions.Length, s.Dimensions.Width, s.Dimensions.Height)},
		{"Declared value", utils.FormatCurrency(s.DeclaredValue, s.DeclaredCurrency)},
		{"Sending date", timeutil.FormatDate(&sent)},
		{"Estimated delivery", timeutil.FormatDate(&eta)},
	}
	for _, r := range details {
		pdf.CellFormat(50, 7, r[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, tr(r[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(130, 9, "Shipping amount", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 9, utils.FormatCurrency(s.ShippingAmount, s.PaymentCurrency), "1", 1, "R", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(180, 7, "Payment status: "+s.PaymentStatus, "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.CellFormat(180, 6, "Track online: "+d.cfg.TrackingURL(s.TrackingNumber), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate stores the QR code and invoice of s and records their keys
func (d *DocumentService) Generate(ctx context.Context, s *models.Shipment) error {
	qrPNG, err := d.QRCode(s.TrackingNumber)
	if err != nil {
		return err
	}
	key := storage.ShipmentKey(s.TrackingNumber, "qr.png")
	if err := d.store.Put(ctx, key, qrPNG, "image/png"); err != nil {
		return err
	}
	s.QRCodePath = key

	invoice, err := d.InvoicePDF(s)
	if err != nil {
		return err
	}
	key = storage.ShipmentKey(s.TrackingNumber, "invoice.pdf")
	if err := d.store.Put(ctx, key, invoice, "application/pdf"); err != nil {
		return err
	}
	s.InvoicePDFPath = key
	return nil
}

// ValidateImage checks size and extension of an uploaded photo
func ValidateImage(img *models.ImageUpload) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("empty file")
	}
	if len(img.Data) > maxImageBytes {
		return fmt.Errorf("file exceeds 10MB")
	}
	if _, ok := allowedImageExt[strings.ToLower(filepath.Ext(img.Filename))]; !ok {
		return fmt.Errorf("only .jpg, .jpeg and .png files are allowed")
	}
	return nil
}

// ImageHash is the hex sha256 of the image content
func ImageHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StoreImage saves a validated photo under the shipment and returns its key
func (d *DocumentService) StoreImage(ctx context.Context, tracking, side string, img *models.ImageUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	key := storage.ShipmentKey(tracking, side+ext)
	if err := d.store.Put(ctx, key, img.Data, allowedImageExt[ext]); err != nil {
		return "", err
	}
	return key, nil
}

// Fetch reads a stored document
func (d *DocumentService) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	if key == "" {
		return nil, "", models.ErrNotFound
	}
	data, ct, err := d.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", models.ErrNotFound
	}
	return data, ct, err
}

// Remove deletes every stored document of s, ignoring missing ones
func (d *DocumentService) Remove(ctx context.Context, s *models.Shipment) error {
	var firstErr error
	for _, key := range []string{s.QRCodePath, s.InvoicePDFPath, s.FrontImagePath, s.RearImagePath} {
		if key == "" {
			continue
		}
		if err := d.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *DocumentService) baseURL() string {
	if d.cfg.Server.PublicURL != "" {
		return d.cfg.Server.PublicURL
	}
	return d.cfg.Server.AppURL
}

// QRURL is the public URL of the tracking QR code
func (d *DocumentService) QRURL(tracking string) string {
	return d.baseURL() + "/api/v1/public/track/" + tracking + "/qr"
}

// InvoiceURL is the public URL of the invoice PDF
func (d *DocumentService) InvoiceURL(tracking string) string {
	return d.baseURL() + "/api/v1/public/track/" + tracking + "/invoice"
}

// ImageURL is the admin URL of a shipment photo, side is front or rear
func (d *DocumentService) ImageURL(tracking, side string) string {
	return d.baseURL() + "/api/v1/shipments/" + tracking + "/images/" + side
}

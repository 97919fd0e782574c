package server

import (
	"errors"
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"unicode"

	"audiovault/internal/models"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil, not this error, so the
// ErrorHandler does not overwrite the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parsePage reads page-based paging (?page&limit); clamping is left to
// service.NormalizePage.
func parsePage(c *fiber.Ctx) (page, pageSize int) {
	return c.QueryInt("page", 1), c.QueryInt("limit", service.DefaultPageSize)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label:
// "id" -> "ID", "itemId" -> "item ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// readUploads reads every file sent under field. A non-multipart request
// yields no files.
func readUploads(c *fiber.Ctx, field string) ([]service.UploadImageInput, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	headers := form.File[field]
	out := make([]service.UploadImageInput, 0, len(headers))
	for _, fh := range headers {
		in, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// readUpload reads at most one file sent under field.
func readUpload(c *fiber.Ctx, field string) (*service.UploadImageInput, error) {
	files, err := readUploads(c, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func readFileHeader(fh *multipart.FileHeader) (service.UploadImageInput, error) {
	src, err := fh.Open()
	if err != nil {
		return service.UploadImageInput{}, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return service.UploadImageInput{}, models.NewValidationError("Unable to read uploaded file")
	}
	return service.UploadImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// formFloat parses an optional numeric form value.
func formFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, models.NewValidationError(key + " must be a number")
	}
	return &v, nil
}

func formBool(c *fiber.Ctx, key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.FormValue(key)))
	return v
}

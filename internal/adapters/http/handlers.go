package http

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/projection"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/logging"
	"github.com/samirrijal/mapart/internal/render/svg"
)

// paramID returns the :id route parameter. Fiber's value aliases the
// request buffer, so it is copied before services or stores keep it.
func paramID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// latLon is a point in a request body. Both fields are required.
type latLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (p *latLon) point() (domain.GeoPoint, error) {
	if p == nil || p.Lat == nil || p.Lon == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: lat and lon are required", domain.ErrInvalidPoint)
	}
	return domain.GeoPoint{Lat: *p.Lat, Lon: *p.Lon}, nil
}

// polygonBody accepts either a list of points or a GeoJSON polygon.
type polygonBody struct {
	Points  []domain.GeoPoint `json:"points"`
	GeoJSON json.RawMessage   `json:"geojson"`
}

func (b polygonBody) polygon() (domain.Polygon, error) {
	if len(b.GeoJSON) > 0 && string(b.GeoJSON) != "null" {
		return domain.PolygonFromGeoJSON(b.GeoJSON)
	}
	return domain.Polygon(b.Points), nil
}

// parseBody decodes an optional JSON body. An empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// ---- Map surface ----

// MapConfigHandler returns the map widget configuration.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Surface.MapConfig())
	}
}

// CreateSessionHandler starts a map surface session and returns its token.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Center *latLon `json:"center"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var center *domain.GeoPoint
		if req.Center != nil {
			p, err := req.Center.point()
			if err != nil {
				return errFromDomain(c, err)
			}
			center = &p
		}

		sess, err := deps.Surface.CreateSession(c.UserContext(), center)
		if err != nil {
			return errFromDomain(c, err)
		}
		token, err := deps.Tokens.Issue(sess.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Location("/v1/sessions/" + sess.ID)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"session": sess,
			"token":   token,
		})
	}
}

// GetSessionHandler returns the session state.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Surface.Get(c.UserContext(), paramID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// DeleteSessionHandler discards the session and its polygon.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Surface.Discard(c.UserContext(), paramID(c)); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StartDrawingHandler enters drawing mode.
func StartDrawingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Surface.StartDrawing(c.UserContext(), paramID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// StopDrawingHandler leaves drawing mode.
func StopDrawingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Surface.StopDrawing(c.UserContext(), paramID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// CompletePolygonHandler stores the finished drawing.
func CompletePolygonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req polygonBody
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		poly, err := req.polygon()
		if err != nil {
			return errFromDomain(c, err)
		}

		sess, err := deps.Surface.CompletePolygon(c.UserContext(), paramID(c), poly)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// RecenterHandler pans the session's view.
func RecenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req latLon
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := req.point()
		if err != nil {
			return errFromDomain(c, err)
		}

		sess, err := deps.Surface.Recenter(c.UserContext(), paramID(c), p)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// ---- Location input ----

// recenterAfterLocate moves an attached session to p. A failure here does
// not undo the lookup.
func recenterAfterLocate(c *fiber.Ctx, deps *Dependencies, p domain.GeoPoint) {
	sid := sessionFromCtx(c)
	if sid == "" {
		return
	}
	if _, err := deps.Surface.Recenter(c.UserContext(), sid, p); err != nil {
		logging.LoggerFromContext(c.UserContext()).Warn("recenter after locate", "session_id", sid, "error", err)
	}
}

// GeolocateHandler asks the positioning service for the current position.
func GeolocateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Location.Locate(c.UserContext(), sessionFromCtx(c))
		if err != nil {
			return errFromUpstream(c, err)
		}
		recenterAfterLocate(c, deps, p)
		return c.JSON(fiber.Map{"location": p})
	}
}

// SearchAddressHandler geocodes a free-text address.
func SearchAddressHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Address string `json:"address"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		p, err := deps.Location.SearchAddress(c.UserContext(), sessionFromCtx(c), req.Address)
		if err != nil {
			return errFromUpstream(c, err)
		}
		recenterAfterLocate(c, deps, p)
		return c.JSON(fiber.Map{"location": p})
	}
}

// ---- Projection & export ----

// ProjectHandler projects a polygon into the canvas without a session.
func ProjectHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		polygonBody
		Canvas *domain.Canvas `json:"canvas"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		canvas := deps.canvas()
		if req.Canvas != nil {
			if err := req.Canvas.Validate(); err != nil {
				return errBadRequest(c, err.Error())
			}
			canvas = *req.Canvas
		}
		poly, err := req.polygon()
		if err != nil {
			return errFromDomain(c, err)
		}

		path, err := projection.New(canvas).BoundaryPath(poly)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"canvas":        canvas,
			"boundary_path": path,
		})
	}
}

// ExportHandler renders the session's polygon and sends it as a download.
func ExportHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Filename string `json:"filename"`
		Format   string `json:"format"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if f := c.Query("format"); f != "" {
			req.Format = f
		}

		var format usecases.Format
		switch req.Format {
		case "", string(usecases.FormatSVG):
			format = usecases.FormatSVG
		case string(usecases.FormatPNG):
			format = usecases.FormatPNG
		default:
			return errBadRequest(c, "format must be svg or png")
		}

		res, err := deps.Exports.Export(c.UserContext(), paramID(c), usecases.ExportOptions{
			Filename: req.Filename,
			Format:   format,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Attachment(res.Filename)
		c.Set(fiber.HeaderContentType, res.ContentType)
		c.Set("X-Street-Count", strconv.Itoa(len(res.Document.Streets)))
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(res.Data)
	}
}

// ExportAsyncHandler queues an export on the worker.
func ExportAsyncHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Filename string `json:"filename"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		job, err := deps.Exports.StartAsync(c.UserContext(), paramID(c), req.Filename)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/exports/" + job.ID)
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// ownedJob loads a job and hides it from other sessions.
func ownedJob(c *fiber.Ctx, deps *Dependencies) (*domain.ExportJob, error) {
	job, err := deps.Exports.Job(c.UserContext(), paramID(c))
	if err != nil {
		return nil, err
	}
	if job.SessionID != sessionFromCtx(c) {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

// ExportJobHandler returns an async export's status.
func ExportJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := ownedJob(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(job)
	}
}

// ExportDocumentHandler downloads a finished async export.
func ExportDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := ownedJob(c, deps); err != nil {
			return errFromDomain(c, err)
		}
		job, data, err := deps.Exports.Document(c.UserContext(), paramID(c))
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Attachment(job.Filename)
		c.Set(fiber.HeaderContentType, svg.ContentType)
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(data)
	}
}

package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/projection"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	canvasType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Canvas",
		Fields: graphql.Fields{
			"width":  &graphql.Field{Type: graphql.Float},
			"height": &graphql.Field{Type: graphql.Float},
		},
	})

	mapConfigType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapConfig",
		Fields: graphql.Fields{
			"apiKey":    &graphql.Field{Type: graphql.String, Resolve: field(func(m domain.MapConfig) interface{} { return m.APIKey })},
			"libraries": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: field(func(m domain.MapConfig) interface{} { return m.Libraries })},
			"center":    &graphql.Field{Type: geoPointType, Resolve: field(func(m domain.MapConfig) interface{} { return m.Center })},
			"zoom":      &graphql.Field{Type: graphql.Int, Resolve: field(func(m domain.MapConfig) interface{} { return m.Zoom })},
			"canvas":    &graphql.Field{Type: canvasType, Resolve: field(func(m domain.MapConfig) interface{} { return m.Canvas })},
			"styles": &graphql.Field{
				Type:        graphql.String,
				Description: "Widget style table as JSON",
				Resolve: field(func(m domain.MapConfig) interface{} {
					b, _ := json.Marshal(m.Styles)
					return string(b)
				}),
			},
		},
	})

	streetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Street",
		Fields: graphql.Fields{
			"place_id": &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"path": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.StreetSegment).Path(), nil
				},
			},
			"points": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(domain.StreetSegment).Points), nil
				},
			},
		},
	})

	polygonArgs := graphql.FieldConfigArgument{
		"polygon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pointInput)))},
		"width":   &graphql.ArgumentConfig{Type: graphql.Float},
		"height":  &graphql.ArgumentConfig{Type: graphql.Float},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"mapConfig": &graphql.Field{
				Type:        mapConfigType,
				Description: "Map widget configuration",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Surface.MapConfig(), nil
				},
			},
			"project": &graphql.Field{
				Type:        graphql.String,
				Description: "Project a polygon into a closed SVG path",
				Args:        polygonArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					poly, canvas, err := polygonFromArgs(p.Args, deps.canvas())
					if err != nil {
						return nil, err
					}
					return projection.New(canvas).BoundaryPath(poly)
				},
			},
			"streets": &graphql.Field{
				Type:        graphql.NewList(streetType),
				Description: "Sample the streets inside a polygon",
				Args:        polygonArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					poly, canvas, err := polygonFromArgs(p.Args, deps.canvas())
					if err != nil {
						return nil, err
					}
					return deps.Sampler.Sample(p.Context, poly, canvas)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// field adapts a MapConfig accessor to a resolver.
func field(get func(domain.MapConfig) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return get(p.Source.(domain.MapConfig)), nil
	}
}

func polygonFromArgs(args map[string]interface{}, canvas domain.Canvas) (domain.Polygon, domain.Canvas, error) {
	raw, _ := args["polygon"].([]interface{})
	poly := make(domain.Polygon, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, canvas, fmt.Errorf("polygon[%d]: expected point", i)
		}
		lat, _ := m["lat"].(float64)
		lon, _ := m["lon"].(float64)
		poly = append(poly, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	if w, ok := args["width"].(float64); ok {
		canvas.Width = w
	}
	if h, ok := args["height"].(float64); ok {
		canvas.Height = h
	}
	if err := canvas.Validate(); err != nil {
		return nil, canvas, err
	}
	return poly, canvas, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := parseBody(c, &req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

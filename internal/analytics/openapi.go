package analytics

import (
	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/openapi"
)

func withFilters(params ...*openapi.Parameter) []*openapi.Parameter {
	return append(params, records.FilterParams()...)
}

func responses(description, schema string) map[int]*openapi.Response {
	return map[int]*openapi.Response{
		200: openapi.ResponseJSON(description, openapi.SchemaRef(schema)),
		400: openapi.ResponseRef("BadRequest"),
		503: openapi.ResponseRef("ServiceUnavailable"),
	}
}

var groupByParam = openapi.EnumParam("group_by", "Grouping key",
	string(ByAssignee), string(ByProcess), string(ByLotNumber), string(ByNone))

var nullableNumber = openapi.Nullable("number", "double", "")

var spec = struct {
	Trend     *openapi.Operation
	Outliers  *openapi.Operation
	Status    *openapi.Operation
	Summary   *openapi.Operation
	Dashboard *openapi.Operation
	Schemas   map[string]*openapi.Schema
}{
	Trend: &openapi.Operation{
		Summary:     "Yield trend",
		Description: "Mean yield per calendar bucket with a trailing moving average and bucket-over-bucket delta.",
		Parameters: withFilters(
			openapi.QueryParam("window", "integer", "Moving average window in buckets").AtLeast(1),
			openapi.EnumParam("bucket", "Bucket size", string(Day), string(Week), string(Month)),
		),
		Responses: responses("Trend windows", "TrendResult"),
	},
	Outliers: &openapi.Operation{
		Summary:     "Yield outliers",
		Description: "Z-scores of each record within its group; records beyond the threshold are flagged.",
		Parameters: withFilters(
			groupByParam,
			openapi.QueryParam("threshold", "number", "Absolute z-score above which a record is an outlier").AtLeast(0),
			openapi.EnumParam("method", "Z-score method", string(LeaveOneOut), string(Standard)),
		),
		Responses: responses("Outlier flags", "OutlierResult"),
	},
	Status: &openapi.Operation{
		Summary:     "Health status",
		Description: "Classifies mean yield against warning and critical thresholds, optionally per group.",
		Parameters: withFilters(
			openapi.QueryParam("warning", "number", "Warning threshold").Between(0, 100),
			openapi.QueryParam("critical", "number", "Critical threshold, not above warning").Between(0, 100),
			groupByParam,
		),
		Responses: responses("Status", "StatusResult"),
	},
	Summary: &openapi.Operation{
		Summary:     "KPI summary",
		Description: "Record counts, mean, median and weighted yield with a failure-mode Pareto.",
		Parameters:  withFilters(),
		Responses:   responses("Summary", "Summary"),
	},
	Dashboard: &openapi.Operation{
		Summary:     "Dashboard",
		Description: "Trend, outliers, per-process status and summary over one snapshot with the configured defaults.",
		Parameters:  withFilters(),
		Responses:   responses("Dashboard", "Dashboard"),
	},
	Schemas: map[string]*openapi.Schema{
		"TrendResult": openapi.Object(map[string]*openapi.Schema{
			"bucket": {Type: "string"},
			"window": {Type: "integer"},
			"windows": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"start":          {Type: "string", Format: "date-time"},
				"end":            {Type: "string", Format: "date-time"},
				"count":          {Type: "integer"},
				"mean_yield":     nullableNumber,
				"moving_average": nullableNumber,
				"delta":          nullableNumber,
			})),
		}),
		"OutlierResult": openapi.Object(map[string]*openapi.Schema{
			"group_by":  {Type: "string"},
			"method":    {Type: "string"},
			"threshold": {Type: "number"},
			"evaluated": {Type: "integer"},
			"outliers":  {Type: "integer"},
			"flags": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"record_id":  {Type: "string", Format: "uuid"},
				"group_key":  {Type: "string"},
				"lot_number": {Type: "string"},
				"yield_pct":  {Type: "number"},
				"z_score":    {Type: "number"},
				"is_outlier": {Type: "boolean"},
			})),
		}),
		"StatusResult": openapi.Object(map[string]*openapi.Schema{
			"thresholds": openapi.Object(map[string]*openapi.Schema{
				"warning":  {Type: "number"},
				"critical": {Type: "number"},
			}),
			"count":      {Type: "integer"},
			"mean_yield": nullableNumber,
			"state":      {Type: []string{"string", "null"}, Enum: []any{string(Healthy), string(Warning), string(Critical), nil}},
			"group_by":   {Type: "string"},
			"groups": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"key":        {Type: "string"},
				"count":      {Type: "integer"},
				"mean_yield": {Type: "number"},
				"state":      {Type: "string"},
			})),
		}),
		"Summary": openapi.Object(map[string]*openapi.Schema{
			"records":           {Type: "integer"},
			"from":              openapi.Nullable("string", "date-time", "Earliest timestamp"),
			"to":                openapi.Nullable("string", "date-time", "Latest timestamp"),
			"mean_yield":        nullableNumber,
			"median_yield":      nullableNumber,
			"start_quantity":    {Type: "number"},
			"rejected_quantity": {Type: "number"},
			"weighted_yield":    nullableNumber,
			"assignees":         {Type: "integer"},
			"processes":         {Type: "integer"},
			"failure_modes": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"reason":         {Type: "string"},
				"count":          {Type: "integer"},
				"share_pct":      {Type: "number"},
				"cumulative_pct": {Type: "number"},
			})),
		}),
		"Dashboard": openapi.Object(map[string]*openapi.Schema{
			"trend":    openapi.SchemaRef("TrendResult"),
			"outliers": openapi.SchemaRef("OutlierResult"),
			"status":   openapi.SchemaRef("StatusResult"),
			"summary":  openapi.SchemaRef("Summary"),
		}),
	},
}

package records

import "github.com/JaimeStill/qagate/pkg/openapi"

// FilterParams documents the record filters accepted by record and
// analytics queries.
func FilterParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.QueryParam("from", "string", "Earliest timestamp, inclusive (RFC 3339 or YYYY-MM-DD)"),
		openapi.QueryParam("to", "string", "Latest timestamp, exclusive; a date covers the whole day"),
		openapi.QueryParam("assignee", "string", "Exact assignee"),
		openapi.QueryParam("process", "string", "Canonical process name"),
		openapi.QueryParam("lot_number", "string", "Exact lot number"),
	}
}

func pageParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)").AtLeast(1),
		openapi.QueryParam("page_size", "integer", "Results per page").AtLeast(1),
	}
}

func pageOf(item string) *openapi.Schema {
	return openapi.Object(map[string]*openapi.Schema{
		"data":        openapi.ArrayOf(openapi.SchemaRef(item)),
		"total":       {Type: "integer"},
		"page":        {Type: "integer"},
		"page_size":   {Type: "integer"},
		"total_pages": {Type: "integer"},
	})
}

var recordID = openapi.PathParam("id", "uuid", "Record ID")

var spec = struct {
	List      *openapi.Operation
	Ingest    *openapi.Operation
	Batches   *openapi.Operation
	Find      *openapi.Operation
	Revisions *openapi.Operation
	Schemas   map[string]*openapi.Schema
}{
	List: &openapi.Operation{
		Summary:     "List records",
		Description: "Returns a page of records. search matches lot number, assignee and process.",
		Parameters: append(append(pageParams(),
			openapi.QueryParam("search", "string", "Case-insensitive substring search"),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields, prefix - for descending"),
		), FilterParams()...),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of records", pageOf("Record")),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Ingest: &openapi.Operation{
		Summary:     "Ingest a batch of raw rows",
		Description: "Validates each row, admits new records, skips duplicates and supersedes changed ones.",
		RequestBody: openapi.RequestBodyJSON("IngestRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Batch report", openapi.SchemaRef("BatchReport")),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			503: openapi.ResponseJSON("Store failure with the partial report", openapi.Object(map[string]*openapi.Schema{
				"error":  {Type: "string"},
				"report": openapi.SchemaRef("BatchReport"),
			})),
		},
	},
	Batches: &openapi.Operation{
		Summary:    "List ingestion batches",
		Parameters: pageParams(),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of batch summaries, newest first", pageOf("BatchSummary")),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a record",
		Parameters: []*openapi.Parameter{recordID},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Record", openapi.SchemaRef("Record")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Revisions: &openapi.Operation{
		Summary:    "List the revisions of a record",
		Parameters: []*openapi.Parameter{recordID},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Revisions, oldest first", openapi.ArrayOf(openapi.SchemaRef("Revision"))),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Record": openapi.Object(map[string]*openapi.Schema{
			"id":                {Type: "string", Format: "uuid", Description: "Derived from lot number, process and timestamp"},
			"lot_number":        {Type: "string"},
			"process":           {Type: "string", Description: "Canonical process name"},
			"assignee":          {Type: "string"},
			"yield_pct":         {Type: "number", Description: "Yield percentage in [0, 100]"},
			"failure_reason":    openapi.Nullable("string", "", "Failure mode"),
			"start_quantity":    openapi.Nullable("number", "", "Units entering the gate"),
			"rejected_quantity": openapi.Nullable("number", "", "Units rejected at the gate"),
			"timestamp":         {Type: "string", Format: "date-time"},
			"source_batch":      {Type: "string", Format: "uuid"},
			"ingested_at":       {Type: "string", Format: "date-time"},
		}, "id", "lot_number", "process", "assignee", "yield_pct", "timestamp"),
		"Revision": openapi.Object(map[string]*openapi.Schema{
			"id":            {Type: "string", Format: "uuid"},
			"record_id":     {Type: "string", Format: "uuid"},
			"batch_id":      {Type: "string", Format: "uuid"},
			"previous":      openapi.SchemaRef("Record"),
			"current":       openapi.SchemaRef("Record"),
			"superseded_at": {Type: "string", Format: "date-time"},
		}),
		"IngestRequest": openapi.Object(map[string]*openapi.Schema{
			"source": {Type: "string", Description: "Label for the export the rows came from"},
			"rows": openapi.ArrayOf(&openapi.Schema{
				Type:        "object",
				Description: "Raw row with lot_number, process, assignee, yield_pct, timestamp and optional failure_reason, start_quantity, rejected_quantity",
			}),
		}, "rows"),
		"BatchReport": openapi.Object(map[string]*openapi.Schema{
			"batch_id":   {Type: "string", Format: "uuid"},
			"source":     {Type: "string"},
			"total":      {Type: "integer"},
			"admitted":   {Type: "integer"},
			"duplicates": {Type: "integer"},
			"superseded": {Type: "integer"},
			"collapsed":  {Type: "integer", Description: "Rows replaced by a later row with the same identity in this batch"},
			"rejected": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"row":     {Type: "integer"},
				"kind":    {Type: "string", Enum: []any{string(MissingField), string(InvalidYield), string(InvalidTimestamp)}},
				"field":   {Type: "string"},
				"value":   {Description: "Offending raw value"},
				"message": {Type: "string"},
			})),
			"warnings": openapi.ArrayOf(openapi.Object(map[string]*openapi.Schema{
				"row":   {Type: "integer"},
				"kind":  {Type: "string", Enum: []any{string(UnmappedProcess), string(ProcessFromLot), string(FailureReasonIgnored), string(QuantityAdjusted)}},
				"field": {Type: "string"},
				"value": {Description: "Raw value"},
			})),
			"archive_key":  {Type: "string", Description: "Blob key of the archived payload"},
			"started_at":   {Type: "string", Format: "date-time"},
			"completed_at": {Type: "string", Format: "date-time"},
		}),
		"BatchSummary": openapi.Object(map[string]*openapi.Schema{
			"id":           {Type: "string", Format: "uuid"},
			"source":       {Type: "string"},
			"total":        {Type: "integer"},
			"admitted":     {Type: "integer"},
			"duplicates":   {Type: "integer"},
			"superseded":   {Type: "integer"},
			"collapsed":    {Type: "integer"},
			"rejected":     {Type: "integer"},
			"warnings":     {Type: "integer"},
			"archive_key":  {Type: "string"},
			"started_at":   {Type: "string", Format: "date-time"},
			"completed_at": {Type: "string", Format: "date-time"},
		}),
	},
}

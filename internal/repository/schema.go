package repository

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ExtractionJobColumns holds the columns for the "extraction_job" table.
	ExtractionJobColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "filename", Type: field.TypeString},
		{Name: "content_hash", Type: field.TypeString, Size: 64},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "provider", Type: field.TypeString, Nullable: true},
		{Name: "amount", Type: field.TypeString, Size: 32, Nullable: true},
		{Name: "currency", Type: field.TypeString, Size: 3, Nullable: true},
		{Name: "due_date", Type: field.TypeString, Size: 10, Nullable: true},
		{Name: "charge_type", Type: field.TypeString, Size: 16, Nullable: true},
		{Name: "error_code", Type: field.TypeString, Size: 32, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "result_json", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
	}
	// ExtractionJobTable holds the schema information for the "extraction_job" table.
	ExtractionJobTable = &schema.Table{
		Name:       "extraction_job",
		Columns:    ExtractionJobColumns,
		PrimaryKey: []*schema.Column{ExtractionJobColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "extractionjob_content_hash",
				Unique:  false,
				Columns: []*schema.Column{ExtractionJobColumns[2]},
			},
			{
				Name:    "extractionjob_started_at",
				Unique:  false,
				Columns: []*schema.Column{ExtractionJobColumns[12]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ExtractionJobTable,
	}
)

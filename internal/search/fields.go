package search

import "resdir/internal/query"

// Per-entity searchable field sets. A field missing from the entity's set is
// rejected as unsearchable, whatever columns the table happens to have.

var userFields = query.FieldSet{
	"id":         {Column: "id", DataType: query.DataTypeNumeric},
	"username":   {Column: "username", DataType: query.DataTypeString},
	"email":      {Column: "email", DataType: query.DataTypeString},
	"active":     {Column: "active", DataType: query.DataTypeBoolean},
	"created_at": {Column: "created_at", DataType: query.DataTypeDate},
	"updated_at": {Column: "updated_at", DataType: query.DataTypeDate},
}

var groupFields = query.FieldSet{
	"id":          {Column: "id", DataType: query.DataTypeNumeric},
	"name":        {Column: "name", DataType: query.DataTypeString},
	"description": {Column: "description", DataType: query.DataTypeString},
	"created_at":  {Column: "created_at", DataType: query.DataTypeDate},
	"updated_at":  {Column: "updated_at", DataType: query.DataTypeDate},
}

var namespaceFields = query.FieldSet{
	"id":          {Column: "id", DataType: query.DataTypeNumeric},
	"name":        {Column: "name", DataType: query.DataTypeString},
	"description": {Column: "description", DataType: query.DataTypeString},
	"created_at":  {Column: "created_at", DataType: query.DataTypeDate},
	"updated_at":  {Column: "updated_at", DataType: query.DataTypeDate},
}

var classFields = query.FieldSet{
	"id":              {Column: "classes.id", DataType: query.DataTypeNumeric},
	"name":            {Column: "classes.name", DataType: query.DataTypeString},
	"description":     {Column: "classes.description", DataType: query.DataTypeString},
	"namespace_id":    {Column: "classes.namespace_id", DataType: query.DataTypeNumeric},
	"validate_schema": {Column: "classes.validate_schema", DataType: query.DataTypeBoolean},
	"created_at":      {Column: "classes.created_at", DataType: query.DataTypeDate},
	"updated_at":      {Column: "classes.updated_at", DataType: query.DataTypeDate},
}

var objectFields = query.FieldSet{
	"id":           {Column: "objects.id", DataType: query.DataTypeNumeric},
	"name":         {Column: "objects.name", DataType: query.DataTypeString},
	"description":  {Column: "objects.description", DataType: query.DataTypeString},
	"namespace_id": {Column: "objects.namespace_id", DataType: query.DataTypeNumeric},
	"class_id":     {Column: "objects.class_id", DataType: query.DataTypeNumeric},
	"created_at":   {Column: "objects.created_at", DataType: query.DataTypeDate},
	"updated_at":   {Column: "objects.updated_at", DataType: query.DataTypeDate},
}

var classRelationFields = query.FieldSet{
	"id":            {Column: "class_relations.id", DataType: query.DataTypeNumeric},
	"from_class_id": {Column: "class_relations.from_class_id", DataType: query.DataTypeNumeric},
	"to_class_id":   {Column: "class_relations.to_class_id", DataType: query.DataTypeNumeric},
	"created_at":    {Column: "class_relations.created_at", DataType: query.DataTypeDate},
	"updated_at":    {Column: "class_relations.updated_at", DataType: query.DataTypeDate},
}

var objectRelationFields = query.FieldSet{
	"id":                {Column: "object_relations.id", DataType: query.DataTypeNumeric},
	"class_relation_id": {Column: "object_relations.class_relation_id", DataType: query.DataTypeNumeric},
	"from_object_id":    {Column: "object_relations.from_object_id", DataType: query.DataTypeNumeric},
	"to_object_id":      {Column: "object_relations.to_object_id", DataType: query.DataTypeNumeric},
	"created_at":        {Column: "object_relations.created_at", DataType: query.DataTypeDate},
	"updated_at":        {Column: "object_relations.updated_at", DataType: query.DataTypeDate},
}

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"metacore/pkg/domain"
)

// GraphDocument is the full metamodel graph as rendered by the JSON format.
type GraphDocument struct {
	ExportedAt      time.Time              `json:"exported_at"`
	SceneTypes      []domain.SceneType     `json:"scene_types,omitempty"`
	Classes         []domain.Class         `json:"classes,omitempty"`
	RelationClasses []domain.RelationClass `json:"relation_classes,omitempty"`
	Attributes      []domain.Attribute     `json:"attributes,omitempty"`
	AttributeTypes  []domain.AttributeType `json:"attribute_types,omitempty"`
	Ports           []domain.Port          `json:"ports,omitempty"`
	Roles           []domain.Role          `json:"roles,omitempty"`
	Rules           []domain.Rule          `json:"rules,omitempty"`
	Procedures      []domain.Procedure     `json:"procedures,omitempty"`
	Users           []domain.User          `json:"users,omitempty"`
	UserGroups      []domain.UserGroup     `json:"user_groups,omitempty"`
	Associations    []domain.Association   `json:"associations,omitempty"`
	Rights          []domain.Right         `json:"rights,omitempty"`
}

func snapshotGraph(ctx context.Context, store domain.PersistentStore) (GraphDocument, error) {
	var doc GraphDocument
	err := store.View(ctx, func(view domain.TransactionView) error {
		doc = GraphDocument{
			ExportedAt:      time.Now().UTC(),
			SceneTypes:      view.ListSceneTypes(),
			Classes:         view.ListClasses(),
			RelationClasses: view.ListRelationClasses(),
			Attributes:      view.ListAttributes(),
			AttributeTypes:  view.ListAttributeTypes(),
			Ports:           view.ListPorts(),
			Roles:           view.ListRoles(),
			Rules:           view.ListRules(),
			Procedures:      view.ListProcedures(),
			Users:           view.ListUsers(),
			UserGroups:      view.ListUserGroups(),
			Associations:    view.ListAssociations(),
			Rights:          view.ListRights(),
		}
		return nil
	})
	return doc, err
}

type payload struct {
	name        string
	contentType string
	data        []byte
}

func render(doc GraphDocument, format Format) ([]payload, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return []payload{{name: "graph.json", contentType: "application/json", data: data}}, nil
	case FormatCSV:
		nodes, err := renderNodesCSV(doc)
		if err != nil {
			return nil, err
		}
		edges, err := renderEdgesCSV(doc)
		if err != nil {
			return nil, err
		}
		return []payload{
			{name: "nodes.csv", contentType: "text/csv", data: nodes},
			{name: "edges.csv", contentType: "text/csv", data: edges},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}

func renderNodesCSV(doc GraphDocument) ([]byte, error) {
	var buf bytes.Buffer
	wr := csv.NewWriter(&buf)
	if err := wr.Write([]string{"id", "category", "name", "description", "created_at", "updated_at"}); err != nil {
		return nil, err
	}
	write := func(base domain.Base, cat domain.Category) error {
		return wr.Write([]string{
			base.ID,
			string(cat),
			base.Name,
			base.Description,
			base.CreatedAt.UTC().Format(time.RFC3339),
			base.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, n := range doc.SceneTypes {
		if err := write(n.Base, domain.CategorySceneType); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Classes {
		if err := write(n.Base, domain.CategoryClass); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.RelationClasses {
		if err := write(n.Base, domain.CategoryRelationClass); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Attributes {
		if err := write(n.Base, domain.CategoryAttribute); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.AttributeTypes {
		if err := write(n.Base, domain.CategoryAttributeType); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Ports {
		if err := write(n.Base, domain.CategoryPort); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Roles {
		if err := write(n.Base, domain.CategoryRole); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Rules {
		if err := write(n.Base, domain.CategoryRule); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Procedures {
		if err := write(n.Base, domain.CategoryProcedure); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.Users {
		if err := write(n.Base, domain.CategoryUser); err != nil {
			return nil, err
		}
	}
	for _, n := range doc.UserGroups {
		if err := write(n.Base, domain.CategoryUserGroup); err != nil {
			return nil, err
		}
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderEdgesCSV(doc GraphDocument) ([]byte, error) {
	var buf bytes.Buffer
	wr := csv.NewWriter(&buf)
	if err := wr.Write([]string{"source_id", "target_id", "kind", "sequence", "ui_hint", "min_card", "max_card"}); err != nil {
		return nil, err
	}
	for _, assoc := range doc.Associations {
		if err := wr.Write([]string{
			assoc.SourceID,
			assoc.TargetID,
			string(assoc.Kind),
			strconv.Itoa(assoc.Sequence),
			assoc.UIHint,
			strconv.Itoa(assoc.MinCard),
			strconv.Itoa(assoc.MaxCard),
		}); err != nil {
			return nil, err
		}
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

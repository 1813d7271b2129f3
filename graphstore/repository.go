package graphstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencite/litgraph/model"
)

// Repository implements GraphRepository over a Connection using MERGE-based
// upserts and UNWIND-based batch inserts, mirroring the bulk primitives the
// store is documented to expose.
type Repository struct {
	conn Connection
}

// NewRepository wraps conn with the domain-level graph operations.
func NewRepository(conn Connection) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) UpsertEntity(ctx context.Context, e model.GraphEntity) (model.GraphEntity, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
		MERGE (n:%s {name: $name})
		ON CREATE SET n.id = $id
		SET n += $props
		RETURN n.id AS id`, string(e.Type))

	params := map[string]any{
		"name":  e.Name,
		"id":    e.ID,
		"props": propsToMap(e.Properties),
	}

	result, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			return cursor.Record()["id"], cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return model.GraphEntity{}, NewStoreError(KindOther, "UpsertEntity", err)
	}
	if id, ok := result.(string); ok {
		e.ID = id
	}
	return e, nil
}

func (r *Repository) GetEntity(ctx context.Context, entityType model.EntityType, name string) (*model.GraphEntity, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s {name: $name}) RETURN n.id AS id, n AS props", string(entityType))
	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			rec := cursor.Record()
			return rec, cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetEntity", err)
	}
	rec, ok := result.(Record)
	if !ok {
		return nil, nil // not-found: neutral empty result, never thrown
	}
	id, _ := rec["id"].(string)
	return &model.GraphEntity{ID: id, Type: entityType, Name: name}, nil
}

func (r *Repository) DeleteEntity(ctx context.Context, id string) error {
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, "MATCH (n {id: $id}) DETACH DELETE n", map[string]any{"id": id})
	})
	if err != nil {
		return NewStoreError(KindOther, "DeleteEntity", err)
	}
	return nil
}

func (r *Repository) UpsertRelation(ctx context.Context, rel model.GraphRelation) (model.GraphRelation, error) {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
		MATCH (a {id: $sourceId}), (b {id: $targetId})
		MERGE (a)-[rel:%s]->(b)
		ON CREATE SET rel.id = $id
		SET rel += $props, rel.weight = $weight
		RETURN rel.id AS id`, string(rel.Type))

	var weight any
	if rel.Weight != nil {
		weight = *rel.Weight
	}

	params := map[string]any{
		"sourceId": rel.SourceID,
		"targetId": rel.TargetID,
		"id":       rel.ID,
		"props":    propsToMap(rel.Properties),
		"weight":   weight,
	}

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	if err != nil {
		return model.GraphRelation{}, NewStoreError(KindOther, "UpsertRelation", err)
	}
	return rel, nil
}

func (r *Repository) DeleteRelation(ctx context.Context, id string) error {
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, "MATCH ()-[rel {id: $id}]->() DELETE rel", map[string]any{"id": id})
	})
	if err != nil {
		return NewStoreError(KindOther, "DeleteRelation", err)
	}
	return nil
}

// UpsertAlias writes one alias keyed by its lowercased, trimmed surface form.
func (r *Repository) UpsertAlias(ctx context.Context, a model.Alias) error {
	return r.UpsertAliasBatch(ctx, []model.Alias{a})
}

// UpsertAliasBatch writes a batch of aliases with a single UNWIND statement,
// the store's documented bulk-insert primitive.
func (r *Repository) UpsertAliasBatch(ctx context.Context, batch []model.Alias) error {
	if len(batch) == 0 {
		return nil
	}
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	rows := make([]map[string]any, len(batch))
	for i, a := range batch {
		rows[i] = map[string]any{
			"alias":      normalizeAliasKey(a.Alias),
			"canonical":  a.Canonical,
			"confidence": a.Confidence,
			"source":     string(a.Source),
			"updatedAt":  a.UpdatedAt.Unix(),
		}
	}

	cypher := `
		UNWIND $rows AS row
		MERGE (al:Alias {alias: row.alias})
		ON CREATE SET al.createdAt = row.updatedAt
		SET al.canonical = row.canonical,
		    al.confidence = row.confidence,
		    al.source = row.source,
		    al.updatedAt = row.updatedAt`

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, cypher, map[string]any{"rows": rows})
	})
	if err != nil {
		return NewStoreError(KindOther, "UpsertAliasBatch", err)
	}
	return nil
}

func (r *Repository) GetAlias(ctx context.Context, alias string) (*model.Alias, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, "MATCH (al:Alias {alias: $alias}) RETURN al", map[string]any{
			"alias": normalizeAliasKey(alias),
		})
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			return cursor.Record(), cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetAlias", err)
	}
	rec, ok := result.(Record)
	if !ok {
		return nil, nil
	}
	node, _ := rec["al"].(map[string]any)
	return &model.Alias{
		Alias:     alias,
		Canonical: fmt.Sprint(node["canonical"]),
		Source:    model.AliasSource(fmt.Sprint(node["source"])),
	}, nil
}

func (r *Repository) DeleteAlias(ctx context.Context, alias string) error {
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, "MATCH (al:Alias {alias: $alias}) DELETE al", map[string]any{
			"alias": normalizeAliasKey(alias),
		})
	})
	if err != nil {
		return NewStoreError(KindOther, "DeleteAlias", err)
	}
	return nil
}

func (r *Repository) LoadAliases(ctx context.Context, limit int) ([]model.Alias, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (al:Alias)
			RETURN al.alias AS alias, al.canonical AS canonical, al.confidence AS confidence,
			       al.source AS source, al.updatedAt AS updatedAt
			ORDER BY al.updatedAt DESC
			LIMIT $limit`, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		var out []model.Alias
		for cursor.Next(ctx) {
			rec := cursor.Record()
			out = append(out, model.Alias{
				Alias:     fmt.Sprint(rec["alias"]),
				Canonical: fmt.Sprint(rec["canonical"]),
				Source:    model.AliasSource(fmt.Sprint(rec["source"])),
			})
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "LoadAliases", err)
	}
	out, _ := result.([]model.Alias)
	return out, nil
}

func (r *Repository) RecordDailyMetrics(ctx context.Context, m model.DailyMetrics) error {
	return r.RecordDailyMetricsBatch(ctx, []model.DailyMetrics{m})
}

// RecordDailyMetricsBatch writes a batch of daily metrics observations with
// a single UNWIND statement, the store's documented bulk-insert primitive
// (matching UpsertAliasBatch), so a multi-item RecordMetricsBatch call
// flushes its successful items in one round-trip instead of one per item.
func (r *Repository) RecordDailyMetricsBatch(ctx context.Context, batch []model.DailyMetrics) error {
	if len(batch) == 0 {
		return nil
	}
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	rows := make([]map[string]any, len(batch))
	for i, m := range batch {
		rows[i] = map[string]any{
			"entityId":      m.EntityID,
			"date":          m.Date.Format("2006-01-02"),
			"citationCount": m.CitationCount,
			"velocity":      m.Velocity,
			"momentum":      m.Momentum,
			"phase":         string(m.AdoptionPhase),
		}
	}

	cypher := `
		UNWIND $rows AS row
		MERGE (dm:DailyMetrics {entityId: row.entityId, date: row.date})
		SET dm.citationCount = row.citationCount, dm.velocity = row.velocity,
		    dm.momentum = row.momentum, dm.adoptionPhase = row.phase`

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, cypher, map[string]any{"rows": rows})
	})
	if err != nil {
		return NewStoreError(KindOther, "RecordDailyMetricsBatch", err)
	}
	return nil
}

func (r *Repository) GetLatestMetrics(ctx context.Context, entityID string, before time.Time) (*model.DailyMetrics, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (dm:DailyMetrics {entityId: $entityId})
			WHERE dm.date < $before
			RETURN dm ORDER BY dm.date DESC LIMIT 1`,
			map[string]any{"entityId": entityID, "before": before.Format("2006-01-02")})
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			return cursor.Record(), cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetLatestMetrics", err)
	}
	rec, ok := result.(Record)
	if !ok {
		return nil, nil
	}
	node, _ := rec["dm"].(map[string]any)
	count, _ := node["citationCount"].(int64)
	return &model.DailyMetrics{EntityID: entityID, CitationCount: int(count)}, nil
}

func (r *Repository) GetHotTopics(ctx context.Context, limit int, minMomentum float64) ([]model.DailyMetrics, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (dm:DailyMetrics)
			WHERE dm.momentum > $minMomentum
			RETURN dm.entityId AS entityId, dm.momentum AS momentum
			ORDER BY dm.momentum DESC LIMIT $limit`,
			map[string]any{"minMomentum": minMomentum, "limit": limit})
		if err != nil {
			return nil, err
		}
		var out []model.DailyMetrics
		for cursor.Next(ctx) {
			rec := cursor.Record()
			momentum, _ := rec["momentum"].(float64)
			out = append(out, model.DailyMetrics{
				EntityID: fmt.Sprint(rec["entityId"]),
				Momentum: momentum,
			})
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetHotTopics", err)
	}
	out, _ := result.([]model.DailyMetrics)
	return out, nil
}

// GetTimeline returns the raw daily series for "day" granularity; week/month
// aggregate the series store-side via a date-bucketing Cypher clause.
func (r *Repository) GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	bucketExpr := "dm.date"
	switch granularity {
	case "week":
		bucketExpr = "apoc.date.format(apoc.date.parse(dm.date, 'ms', 'yyyy-MM-dd'), 'ms', 'YYYY-ww')"
	case "month":
		bucketExpr = "substring(dm.date, 0, 7)"
	}

	cypher := fmt.Sprintf(`
		MATCH (dm:DailyMetrics {entityId: $entityId})
		WHERE dm.date >= $from AND dm.date <= $to
		WITH %s AS bucket, avg(dm.citationCount) AS citationCount,
		     avg(dm.velocity) AS velocity, avg(dm.momentum) AS momentum
		RETURN bucket, citationCount, velocity, momentum ORDER BY bucket`, bucketExpr)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, map[string]any{
			"entityId": entityID,
			"from":     from.Format("2006-01-02"),
			"to":       to.Format("2006-01-02"),
		})
		if err != nil {
			return nil, err
		}
		var out []model.DailyMetrics
		for cursor.Next(ctx) {
			rec := cursor.Record()
			citation, _ := rec["citationCount"].(float64)
			velocity, _ := rec["velocity"].(float64)
			momentum, _ := rec["momentum"].(float64)
			out = append(out, model.DailyMetrics{
				EntityID:      entityID,
				CitationCount: int(citation),
				Velocity:      velocity,
				Momentum:      momentum,
			})
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetTimeline", err)
	}
	out, _ := result.([]model.DailyMetrics)
	return out, nil
}

// GetPhaseDistribution counts entities per adoption phase, each entity
// represented by its latest DailyMetrics observation.
func (r *Repository) GetPhaseDistribution(ctx context.Context) (map[model.AdoptionPhase]int, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (dm:DailyMetrics)
			WITH dm.entityId AS entityId, max(dm.date) AS latest
			MATCH (cur:DailyMetrics {entityId: entityId, date: latest})
			RETURN cur.adoptionPhase AS phase, count(*) AS n`, nil)
		if err != nil {
			return nil, err
		}
		dist := make(map[model.AdoptionPhase]int)
		for cursor.Next(ctx) {
			rec := cursor.Record()
			n, _ := rec["n"].(int64)
			dist[model.AdoptionPhase(fmt.Sprint(rec["phase"]))] = int(n)
		}
		return dist, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetPhaseDistribution", err)
	}
	dist, _ := result.(map[model.AdoptionPhase]int)
	return dist, nil
}

// SaveTrendSnapshot materializes a snapshot under its own label; the
// phase distribution and hot-topic list are stored as parallel arrays
// since the store's property model has no nested maps.
func (r *Repository) SaveTrendSnapshot(ctx context.Context, s model.TrendSnapshot) error {
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	phases := make([]string, 0, len(s.PhaseDistribution))
	counts := make([]int, 0, len(s.PhaseDistribution))
	for phase, n := range s.PhaseDistribution {
		phases = append(phases, string(phase))
		counts = append(counts, n)
	}

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, `
			CREATE (ts:TrendSnapshot {
				capturedAt: $capturedAt,
				phases: $phases,
				phaseCounts: $counts,
				hotTopics: $hotTopics
			})`, map[string]any{
			"capturedAt": s.CapturedAt.Format(time.RFC3339),
			"phases":     phases,
			"counts":     counts,
			"hotTopics":  s.HotTopics,
		})
	})
	if err != nil {
		return NewStoreError(KindOther, "SaveTrendSnapshot", err)
	}
	return nil
}

// GetLatestTrendSnapshot returns the most recently captured snapshot, or
// nil when none has been materialized yet.
func (r *Repository) GetLatestTrendSnapshot(ctx context.Context) (*model.TrendSnapshot, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (ts:TrendSnapshot)
			RETURN ts.capturedAt AS capturedAt, ts.phases AS phases,
			       ts.phaseCounts AS phaseCounts, ts.hotTopics AS hotTopics
			ORDER BY ts.capturedAt DESC LIMIT 1`, nil)
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			return cursor.Record(), cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetLatestTrendSnapshot", err)
	}
	rec, ok := result.(Record)
	if !ok {
		return nil, nil
	}

	snap := &model.TrendSnapshot{PhaseDistribution: make(map[model.AdoptionPhase]int)}
	if captured, err := time.Parse(time.RFC3339, fmt.Sprint(rec["capturedAt"])); err == nil {
		snap.CapturedAt = captured
	}
	phases, _ := rec["phases"].([]any)
	counts, _ := rec["phaseCounts"].([]any)
	for i := range phases {
		if i >= len(counts) {
			break
		}
		n, _ := counts[i].(int64)
		snap.PhaseDistribution[model.AdoptionPhase(fmt.Sprint(phases[i]))] = int(n)
	}
	topics, _ := rec["hotTopics"].([]any)
	for _, t := range topics {
		snap.HotTopics = append(snap.HotTopics, fmt.Sprint(t))
	}
	return snap, nil
}

func (r *Repository) FindExistingPapers(ctx context.Context, limit int) ([]model.Paper, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (p:Publication)
			RETURN p.id AS id, p.doi AS doi, p.externalId AS externalId, p.title AS title
			ORDER BY p.ingestionDate DESC LIMIT $limit`, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		var out []model.Paper
		for cursor.Next(ctx) {
			rec := cursor.Record()
			out = append(out, model.Paper{
				ID:         fmt.Sprint(rec["id"]),
				DOI:        fmt.Sprint(rec["doi"]),
				ExternalID: fmt.Sprint(rec["externalId"]),
				Title:      fmt.Sprint(rec["title"]),
			})
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "FindExistingPapers", err)
	}
	out, _ := result.([]model.Paper)
	return out, nil
}

func (r *Repository) SavePaper(ctx context.Context, p model.Paper) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	session := r.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (p:Publication {id: $id})
			SET p.doi = $doi, p.externalId = $externalId, p.title = $title,
			    p.abstract = $abstract, p.source = $source, p.contentHash = $contentHash,
			    p.processingStatus = $status, p.ingestionDate = $ingestionDate,
			    p.lastUpdated = $lastUpdated`,
			map[string]any{
				"id":            p.ID,
				"doi":           p.DOI,
				"externalId":    p.ExternalID,
				"title":         p.Title,
				"abstract":      p.Abstract,
				"source":        string(p.Source),
				"contentHash":   p.ContentHash,
				"status":        string(p.ProcessingStatus),
				"ingestionDate": p.IngestionDate.Unix(),
				"lastUpdated":   p.LastUpdated.Unix(),
			})
	})
	if err != nil {
		return NewStoreError(KindOther, "SavePaper", err)
	}
	return nil
}

// RelationsFrom returns every relation touching entityID in either
// direction, the adjacency primitive path finding walks one hop at a time.
func (r *Repository) RelationsFrom(ctx context.Context, entityID string) ([]model.GraphRelation, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, `
			MATCH (a {id: $id})-[rel]-(b)
			RETURN rel.id AS id, type(rel) AS type, a.id AS sourceId, b.id AS targetId, rel.weight AS weight`,
			map[string]any{"id": entityID})
		if err != nil {
			return nil, err
		}
		var out []model.GraphRelation
		for cursor.Next(ctx) {
			rec := cursor.Record()
			rel := model.GraphRelation{
				ID:       fmt.Sprint(rec["id"]),
				Type:     model.RelationType(fmt.Sprint(rec["type"])),
				SourceID: fmt.Sprint(rec["sourceId"]),
				TargetID: fmt.Sprint(rec["targetId"]),
			}
			if w, ok := rec["weight"].(float64); ok {
				rel.Weight = &w
			}
			out = append(out, rel)
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "RelationsFrom", err)
	}
	out, _ := result.([]model.GraphRelation)
	return out, nil
}

// GetEntityByID looks up a single entity by its store ID.
func (r *Repository) GetEntityByID(ctx context.Context, id string) (*model.GraphEntity, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, "MATCH (n {id: $id}) RETURN n.id AS id, labels(n) AS labels, n.name AS name",
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if cursor.Next(ctx) {
			return cursor.Record(), cursor.Err()
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "GetEntityByID", err)
	}
	rec, ok := result.(Record)
	if !ok {
		return nil, nil
	}
	var entityType model.EntityType
	if labels, ok := rec["labels"].([]any); ok && len(labels) > 0 {
		entityType = model.EntityType(fmt.Sprint(labels[0]))
	}
	return &model.GraphEntity{
		ID:   fmt.Sprint(rec["id"]),
		Type: entityType,
		Name: fmt.Sprint(rec["name"]),
	}, nil
}

// ListEntitiesByType returns up to limit entities carrying the given label,
// used to resolve a PathQuery whose start or end name is a type-only
// wildcard rather than a specific entity.
func (r *Repository) ListEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]model.GraphEntity, error) {
	session := r.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s) RETURN n.id AS id, n.name AS name LIMIT $limit", string(entityType))
	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		var out []model.GraphEntity
		for cursor.Next(ctx) {
			rec := cursor.Record()
			out = append(out, model.GraphEntity{
				ID:   fmt.Sprint(rec["id"]),
				Type: entityType,
				Name: fmt.Sprint(rec["name"]),
			})
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "ListEntitiesByType", err)
	}
	out, _ := result.([]model.GraphEntity)
	return out, nil
}

func propsToMap(p model.Properties) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch v.Kind {
		case model.KindString:
			out[k] = v.Str
		case model.KindNumber:
			out[k] = v.Num
		case model.KindBool:
			out[k] = v.Bool
		case model.KindList:
			items := make([]any, len(v.List))
			for i, item := range v.List {
				items[i] = item.AsString()
			}
			out[k] = items
		}
	}
	return out
}

func normalizeAliasKey(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

package metrics

// Load sources reported by RecordSchemaLoad
const (
	LoadSourceStore    = "store"
	LoadSourceCache    = "cache"
	LoadSourceDefaults = "defaults"
)

// Secondary storage targets reported by RecordMirrorFailure
const (
	MirrorTargetCache   = "cache"
	MirrorTargetArchive = "archive"
)

// RecordFieldAdded increments the added-field counter for fieldType
func (m *Metrics) RecordFieldAdded(fieldType string) {
	m.safeExecute("RecordFieldAdded", func() {
		m.FieldAddedTotal.WithLabelValues(fieldType).Inc()
	})
}

// RecordFieldRejected increments the rejected-field counter for fieldType
func (m *Metrics) RecordFieldRejected(fieldType string) {
	m.safeExecute("RecordFieldRejected", func() {
		m.FieldRejectedTotal.WithLabelValues(fieldType).Inc()
	})
}

// RecordSchemaSaved increments the schema save counter
func (m *Metrics) RecordSchemaSaved() {
	m.safeExecute("RecordSchemaSaved", func() {
		m.SchemaSavedTotal.Inc()
	})
}

// RecordSchemaLoad records where a schema load was served from and whether it was migrated
func (m *Metrics) RecordSchemaLoad(source string, migrated bool) {
	m.safeExecute("RecordSchemaLoad", func() {
		m.SchemaLoadsTotal.WithLabelValues(source).Inc()
		if migrated {
			m.SchemaMigratedTotal.Inc()
		}
	})
}

// RecordImport records an import attempt
func (m *Metrics) RecordImport(success bool) {
	m.safeExecute("RecordImport", func() {
		result := "success"
		if !success {
			result = "failure"
		}
		m.ImportsTotal.WithLabelValues(result).Inc()
	})
}

// RecordExport increments the export counter
func (m *Metrics) RecordExport() {
	m.safeExecute("RecordExport", func() {
		m.ExportsTotal.Inc()
	})
}

// RecordMirrorFailure records a failed best-effort write to a secondary store
func (m *Metrics) RecordMirrorFailure(target string) {
	m.safeExecute("RecordMirrorFailure", func() {
		m.MirrorFailuresTotal.WithLabelValues(target).Inc()
	})
}

// RecordSessionsExpired adds n to the expired session counter
func (m *Metrics) RecordSessionsExpired(n int) {
	m.safeExecute("RecordSessionsExpired", func() {
		m.SessionsExpiredTotal.Add(float64(n))
	})
}

// SetActiveSessions sets the open session gauge
func (m *Metrics) SetActiveSessions(count int) {
	m.safeExecute("SetActiveSessions", func() {
		m.ActiveSessions.Set(float64(count))
	})
}

// SetSchemasTotal sets the stored schema gauge
func (m *Metrics) SetSchemasTotal(count int64) {
	m.safeExecute("SetSchemasTotal", func() {
		m.SchemasTotal.Set(float64(count))
	})
}

package outbox

// Operation names stored in outbox.op (idempotent targets).
const (
	OpSyncMatch      = "sync_match_graph"
	OpSyncAttendance = "sync_attendance_graph"
	OpNotifyProposed = "notify_match_proposed"
	OpNotifyAccepted = "notify_match_accepted"
	OpUpsertProfile  = "upsert_profile_embedding"
	OpDeleteProfile  = "delete_profile_embedding"
)

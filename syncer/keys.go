package syncer

import "strings"

// Substrate key layout per camera sub-table. Keys are dot-separated so they
// map onto KV subject tokens and wildcard watches:
//
//	<camera>.pipeline                   active type selector (integer)
//	<camera>.processLatency             per-frame processing latency (ms)
//	<camera>.captureLatency             per-frame capture latency (ms)
//	<camera>.schema                     published settings schema (JSON)
//	<camera>.settings.<name>            canonical setting values
//	<camera>.data.<key>                 primitive telemetry entries
//	<camera>.data.results               final result envelope (CBOR)
//	<camera>.proposed.settings.<name>   inbound proposed writes
//	<camera>.rejected.settings.<name>   rejection records {value, error}
//
// Canonical keys only ever carry validated values: proposals arrive on the
// dedicated proposed sub-table and are echoed back after validation.
const (
	leafPipeline       = "pipeline"
	leafProcessLatency = "processLatency"
	leafCaptureLatency = "captureLatency"
	leafSchema         = "schema"

	segSettings = "settings"
	segData     = "data"
	segProposed = "proposed"
	segRejected = "rejected"

	leafResults = "results"

	// proposalPattern watches every camera's proposed settings sub-table.
	proposalPattern = "*." + segProposed + "." + segSettings + ".>"
)

func pipelineKey(camera string) string {
	return camera + "." + leafPipeline
}

func processLatencyKey(camera string) string {
	return camera + "." + leafProcessLatency
}

func captureLatencyKey(camera string) string {
	return camera + "." + leafCaptureLatency
}

func schemaKey(camera string) string {
	return camera + "." + leafSchema
}

func settingKey(camera, name string) string {
	return camera + "." + segSettings + "." + name
}

func dataKey(camera, key string) string {
	return camera + "." + segData + "." + key
}

func resultsKey(camera string) string {
	return camera + "." + segData + "." + leafResults
}

func proposalKey(camera, name string) string {
	return camera + "." + segProposed + "." + segSettings + "." + name
}

func rejectionKey(camera, name string) string {
	return camera + "." + segRejected + "." + segSettings + "." + name
}

// parseProposalKey extracts the camera and setting name from a proposed
// settings key. Setting names may themselves contain dots.
func parseProposalKey(key string) (camera, name string, ok bool) {
	parts := strings.SplitN(key, ".", 4)
	if len(parts) != 4 || parts[1] != segProposed || parts[2] != segSettings {
		return "", "", false
	}
	return parts[0], parts[3], true
}

// cameraPrefix is the prefix owning every key in a camera's sub-table
func cameraPrefix(camera string) string {
	return camera + "."
}

// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - turn.* — turn lifecycle (wake detection, state changes, turn end)
//   - user.* — what the user said (utterances, the final question)
//   - assistant.* — answer generation, speech synthesis and playback
//
// Pipeline workers report stage completion to the control loop exclusively
// through these events; the control loop is the only writer of turn state.
package events

package core

import (
	"encoding/json"
	"fmt"
	"time"

	"skillcache-backend-go/pkg/messagequeue"
)

// Queue names for domain events consumed by notification workers.
const (
	QueueInvitationEvents = "skillcache.invitations"
	QueueVaultEvents      = "skillcache.vaults"
)

// Event kinds.
const (
	EventInvitationCreated  = "invitation.created"
	EventInvitationAccepted = "invitation.accepted"
	EventInvitationRejected = "invitation.rejected"
	EventVaultDeleted       = "vault.deleted"
)

// DomainEvent is the JSON envelope published to the message queue.
type DomainEvent struct {
	Kind       string    `json:"kind"`
	VaultID    string    `json:"vaultId,omitempty"`
	Email      string    `json:"email,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// publishEvent marshals and publishes a domain event. Publication is
// best-effort: a nil queue is a no-op and failures are only logged by callers.
func publishEvent(mq messagequeue.MessageQueue, queueName string, event DomainEvent) error {
	if mq == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Kind, err)
	}
	return mq.Publish(queueName, body)
}

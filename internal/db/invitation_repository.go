package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillcache-backend-go/internal/models"
)

const invitationsCollection = "vault_invitations"

// firestoreInvitationRepository implements InvitationRepository using Firestore.
type firestoreInvitationRepository struct {
	client *firestore.Client
}

// NewFirestoreInvitationRepository creates a new instance of firestoreInvitationRepository.
func NewFirestoreInvitationRepository(client *firestore.Client) InvitationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for InvitationRepository.")
	}
	return &firestoreInvitationRepository{client: client}
}

// Create adds a new invitation document with an auto-generated ID.
func (r *firestoreInvitationRepository) Create(ctx context.Context, invitation *models.VaultInvitation) (string, error) {
	docRef := r.client.Collection(invitationsCollection).NewDoc()
	invitation.ID = docRef.ID

	if _, err := docRef.Create(ctx, invitation); err != nil {
		return "", fmt.Errorf("failed to create invitation: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves an invitation document by its ID.
func (r *firestoreInvitationRepository) GetByID(ctx context.Context, invitationID string) (*models.VaultInvitation, error) {
	if invitationID == "" {
		return nil, errors.New("invitationID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(invitationsCollection).Doc(invitationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("invitation with ID '%s' not found: %w", invitationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invitation with ID '%s': %w", invitationID, err)
	}

	var invitation models.VaultInvitation
	if err := docSnap.DataTo(&invitation); err != nil {
		return nil, fmt.Errorf("failed to decode invitation data for ID '%s': %w", invitationID, err)
	}
	invitation.ID = docSnap.Ref.ID
	return &invitation, nil
}

// GetPendingByVaultAndEmail returns the pending invitation for (vaultID, email),
// or ErrNotFound when none exists. At most one may exist at a time.
func (r *firestoreInvitationRepository) GetPendingByVaultAndEmail(ctx context.Context, vaultID, email string) (*models.VaultInvitation, error) {
	if vaultID == "" || email == "" {
		return nil, errors.New("vaultID and email cannot be empty for GetPendingByVaultAndEmail operation")
	}

	iter := r.client.Collection(invitationsCollection).
		Where("vaultId", "==", vaultID).
		Where("email", "==", email).
		Where("status", "==", string(models.InvitationStatusPending)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no pending invitation for vault '%s' and email '%s': %w", vaultID, email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending invitation for vault '%s': %w", vaultID, err)
	}

	var invitation models.VaultInvitation
	if err := doc.DataTo(&invitation); err != nil {
		return nil, fmt.Errorf("failed to decode invitation data (ID: %s): %w", doc.Ref.ID, err)
	}
	invitation.ID = doc.Ref.ID
	return &invitation, nil
}

// GetPendingByEmail returns all pending invitations addressed to email.
func (r *firestoreInvitationRepository) GetPendingByEmail(ctx context.Context, email string) ([]*models.VaultInvitation, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty for GetPendingByEmail operation")
	}

	iter := r.client.Collection(invitationsCollection).
		Where("email", "==", email).
		Where("status", "==", string(models.InvitationStatusPending)).
		Documents(ctx)
	defer iter.Stop()

	var invitations []*models.VaultInvitation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate pending invitations for '%s': %w", email, err)
		}

		var invitation models.VaultInvitation
		if err := doc.DataTo(&invitation); err != nil {
			log.Printf("Error decoding invitation data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		invitation.ID = doc.Ref.ID
		invitations = append(invitations, &invitation)
	}
	return invitations, nil
}

// UpdateStatus sets the status field of an invitation document.
func (r *firestoreInvitationRepository) UpdateStatus(ctx context.Context, invitationID string, invStatus models.InvitationStatus) error {
	if invitationID == "" {
		return errors.New("invitationID cannot be empty for UpdateStatus operation")
	}
	_, err := r.client.Collection(invitationsCollection).Doc(invitationID).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(invStatus)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("invitation with ID '%s' not found: %w", invitationID, ErrNotFound)
		}
		return fmt.Errorf("failed to update status of invitation '%s': %w", invitationID, err)
	}
	return nil
}

// Accept appends member to the invitation's vault and transitions the invitation
// to accepted in a single Firestore transaction. The member append uses
// ArrayUnion so a concurrent membership edit cannot lose the new entry.
func (r *firestoreInvitationRepository) Accept(ctx context.Context, invitationID string, member models.VaultMember) error {
	if invitationID == "" {
		return errors.New("invitationID cannot be empty for Accept operation")
	}
	invRef := r.client.Collection(invitationsCollection).Doc(invitationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		invSnap, err := tx.Get(invRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("invitation with ID '%s' not found: %w", invitationID, ErrNotFound)
			}
			return err
		}

		var invitation models.VaultInvitation
		if err := invSnap.DataTo(&invitation); err != nil {
			return fmt.Errorf("failed to decode invitation data for ID '%s': %w", invitationID, err)
		}

		// A racing accept may have flipped the status after the caller's read.
		// Re-check inside the transaction so the member is appended at most once.
		if invitation.Status != models.InvitationStatusPending {
			return fmt.Errorf("invitation '%s' is '%s': %w", invitationID, invitation.Status, ErrNotPending)
		}

		vaultRef := r.client.Collection(vaultsCollection).Doc(invitation.VaultID)
		if _, err := tx.Get(vaultRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("vault with ID '%s' not found: %w", invitation.VaultID, ErrNotFound)
			}
			return err
		}

		if err := tx.Update(vaultRef, []firestore.Update{
			{Path: "members", Value: firestore.ArrayUnion(member)},
			{Path: "memberIds", Value: firestore.ArrayUnion(member.UserID)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}

		return tx.Update(invRef, []firestore.Update{
			{Path: "status", Value: string(models.InvitationStatusAccepted)},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to accept invitation '%s': %w", invitationID, err)
	}
	return nil
}

// DeletePendingByVaultID removes all pending invitations referencing vaultID.
// Used when a vault is deleted (cascade).
func (r *firestoreInvitationRepository) DeletePendingByVaultID(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for DeletePendingByVaultID operation")
	}

	iter := r.client.Collection(invitationsCollection).
		Where("vaultId", "==", vaultID).
		Where("status", "==", string(models.InvitationStatusPending)).
		Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate pending invitations for vault '%s': %w", vaultID, err)
		}
		batch.Delete(doc.Ref)
		deleted++
	}

	if deleted == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete pending invitations for vault '%s': %w", vaultID, err)
	}
	return nil
}

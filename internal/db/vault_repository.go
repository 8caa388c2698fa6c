package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillcache-backend-go/internal/models"
)

const vaultsCollection = "vaults"

// firestoreVaultRepository implements the VaultRepository interface using Firestore.
type firestoreVaultRepository struct {
	client *firestore.Client
}

// NewFirestoreVaultRepository creates a new instance of firestoreVaultRepository.
func NewFirestoreVaultRepository(client *firestore.Client) VaultRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for VaultRepository.")
	}
	return &firestoreVaultRepository{client: client}
}

// Create adds a new vault document with an auto-generated ID and sets vault.ID.
// CreatedAt/UpdatedAt are handled by serverTimestamp tags on the model.
func (r *firestoreVaultRepository) Create(ctx context.Context, vault *models.Vault) (string, error) {
	docRef := r.client.Collection(vaultsCollection).NewDoc()
	vault.ID = docRef.ID
	vault.MemberIDs = models.MemberIDsOf(vault.Members)

	if _, err := docRef.Create(ctx, vault); err != nil {
		return "", fmt.Errorf("failed to create vault: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a vault document by its ID.
func (r *firestoreVaultRepository) GetByID(ctx context.Context, vaultID string) (*models.Vault, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(vaultsCollection).Doc(vaultID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("vault with ID '%s' not found: %w", vaultID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vault with ID '%s': %w", vaultID, err)
	}

	var vault models.Vault
	if err := docSnap.DataTo(&vault); err != nil {
		return nil, fmt.Errorf("failed to decode vault data for ID '%s': %w", vaultID, err)
	}
	vault.ID = docSnap.Ref.ID
	return &vault, nil
}

// GetByMemberID retrieves all vaults where userID appears on the member list,
// owned or shared. Pagination is basic: "limit" and "startAfter" (document ID).
func (r *firestoreVaultRepository) GetByMemberID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Vault, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByMemberID operation")
	}

	query := r.client.Collection(vaultsCollection).
		Where("memberIds", "array-contains", userID).
		OrderBy("createdAt", firestore.Desc)

	if limitStr, ok := paginationParams["limit"]; ok {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}
	if startAfterDocID, ok := paginationParams["startAfter"]; ok && startAfterDocID != "" {
		startAfterSnap, err := r.client.Collection(vaultsCollection).Doc(startAfterDocID).Get(ctx)
		if err == nil {
			query = query.StartAfter(startAfterSnap)
		} else {
			log.Printf("Warning: could not fetch startAfter document '%s': %v. Pagination may be affected.", startAfterDocID, err)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var vaults []*models.Vault
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate vaults for member '%s': %w", userID, err)
		}

		var vault models.Vault
		if err := doc.DataTo(&vault); err != nil {
			log.Printf("Error decoding vault data (ID: %s) for member '%s': %v. Skipping.", doc.Ref.ID, userID, err)
			continue
		}
		vault.ID = doc.Ref.ID
		vaults = append(vaults, &vault)
	}
	return vaults, nil
}

// Update modifies the metadata fields of an existing vault document. The member
// list is deliberately not written: the caller's copy may come from the cache,
// and writing it back would overwrite a membership change committed between the
// read and this write. Membership is only ever mutated transactionally, via
// UpdateMembers or the invitation Accept.
func (r *firestoreVaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	if vault.ID == "" {
		return errors.New("vault ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(vaultsCollection).Doc(vault.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: vault.Name},
		{Path: "description", Value: vault.Description},
		{Path: "isPrivate", Value: vault.IsPrivate},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("vault with ID '%s' not found for update: %w", vault.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update vault with ID '%s': %w", vault.ID, err)
	}
	return nil
}

// Delete removes a vault document. Notes and invitations referencing the vault
// are cleaned up by the service layer.
func (r *firestoreVaultRepository) Delete(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(vaultsCollection).Doc(vaultID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("vault with ID '%s' not found for deletion: %w", vaultID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete vault with ID '%s': %w", vaultID, err)
	}
	return nil
}

// UpdateMembers rewrites the vault's member list inside a Firestore transaction.
// The mutate callback receives the freshest member list; returning an error
// aborts the transaction without any write.
func (r *firestoreVaultRepository) UpdateMembers(ctx context.Context, vaultID string, mutate func(members []models.VaultMember) ([]models.VaultMember, error)) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for UpdateMembers operation")
	}
	docRef := r.client.Collection(vaultsCollection).Doc(vaultID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("vault with ID '%s' not found: %w", vaultID, ErrNotFound)
			}
			return err
		}

		var vault models.Vault
		if err := docSnap.DataTo(&vault); err != nil {
			return fmt.Errorf("failed to decode vault data for ID '%s': %w", vaultID, err)
		}

		newMembers, err := mutate(vault.Members)
		if err != nil {
			return err
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "members", Value: newMembers},
			{Path: "memberIds", Value: models.MemberIDsOf(newMembers)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to update members of vault '%s': %w", vaultID, err)
	}
	return nil
}

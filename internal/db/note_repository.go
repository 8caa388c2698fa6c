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

const notesCollection = "notes"

// firestoreNoteRepository implements the NoteRepository interface using Firestore.
type firestoreNoteRepository struct {
	client *firestore.Client
}

// NewFirestoreNoteRepository creates a new instance of firestoreNoteRepository.
func NewFirestoreNoteRepository(client *firestore.Client) NoteRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NoteRepository.")
	}
	return &firestoreNoteRepository{client: client}
}

// Create adds a new note document with an auto-generated ID and sets note.ID.
func (r *firestoreNoteRepository) Create(ctx context.Context, note *models.Note) (string, error) {
	docRef := r.client.Collection(notesCollection).NewDoc()
	note.ID = docRef.ID

	if _, err := docRef.Create(ctx, note); err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a note document by its ID.
func (r *firestoreNoteRepository) GetByID(ctx context.Context, noteID string) (*models.Note, error) {
	if noteID == "" {
		return nil, errors.New("noteID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(notesCollection).Doc(noteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("note with ID '%s' not found: %w", noteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get note with ID '%s': %w", noteID, err)
	}

	var note models.Note
	if err := docSnap.DataTo(&note); err != nil {
		return nil, fmt.Errorf("failed to decode note data for ID '%s': %w", noteID, err)
	}
	note.ID = docSnap.Ref.ID
	return &note, nil
}

// GetByUserID retrieves a user's personal notes, newest first.
func (r *firestoreNoteRepository) GetByUserID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Note, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByUserID operation")
	}
	query := r.client.Collection(notesCollection).Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	return r.queryNotes(ctx, query, paginationParams)
}

// GetByVaultID retrieves a vault's notes, newest first.
func (r *firestoreNoteRepository) GetByVaultID(ctx context.Context, vaultID string, paginationParams map[string]string) ([]*models.Note, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByVaultID operation")
	}
	query := r.client.Collection(notesCollection).Where("vaultId", "==", vaultID).OrderBy("createdAt", firestore.Desc)
	return r.queryNotes(ctx, query, paginationParams)
}

// queryNotes applies basic pagination ("limit", "startAfter" document ID) and
// materializes the result set.
func (r *firestoreNoteRepository) queryNotes(ctx context.Context, query firestore.Query, paginationParams map[string]string) ([]*models.Note, error) {
	if limitStr, ok := paginationParams["limit"]; ok {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}
	if startAfterDocID, ok := paginationParams["startAfter"]; ok && startAfterDocID != "" {
		startAfterSnap, err := r.client.Collection(notesCollection).Doc(startAfterDocID).Get(ctx)
		if err == nil {
			query = query.StartAfter(startAfterSnap)
		} else {
			log.Printf("Warning: could not fetch startAfter document '%s': %v. Pagination may be affected.", startAfterDocID, err)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var notes []*models.Note
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notes: %w", err)
		}

		var note models.Note
		if err := doc.DataTo(&note); err != nil {
			log.Printf("Error decoding note data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		note.ID = doc.Ref.ID
		notes = append(notes, &note)
	}
	return notes, nil
}

// Update modifies an existing note document using Set with MergeAll.
func (r *firestoreNoteRepository) Update(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		return errors.New("note ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(notesCollection).Doc(note.ID).Set(ctx, note, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update note with ID '%s': %w", note.ID, err)
	}
	return nil
}

// Delete removes a note document.
func (r *firestoreNoteRepository) Delete(ctx context.Context, noteID string) error {
	if noteID == "" {
		return errors.New("noteID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(notesCollection).Doc(noteID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("note with ID '%s' not found for deletion: %w", noteID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete note with ID '%s': %w", noteID, err)
	}
	return nil
}

// DeleteByVaultID removes every note belonging to vaultID. Used when a vault
// is deleted (cascade).
func (r *firestoreNoteRepository) DeleteByVaultID(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for DeleteByVaultID operation")
	}

	iter := r.client.Collection(notesCollection).Where("vaultId", "==", vaultID).Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate notes of vault '%s': %w", vaultID, err)
		}
		batch.Delete(doc.Ref)
		deleted++
	}

	if deleted == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete notes of vault '%s': %w", vaultID, err)
	}
	return nil
}

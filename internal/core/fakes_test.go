package core

// In-memory fakes for the db repository interfaces, plus a recording cache and
// message queue. They emulate the Firestore-backed behavior the services rely
// on: not-found translation, transactional member-list rewrites, and the
// atomic accept that touches the invitation and its vault together.

import (
	"context"
	"fmt"
	"time"

	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/models"
)

type fakeVaultRepo struct {
	vaults map[string]*models.Vault
	nextID int
}

func newFakeVaultRepo() *fakeVaultRepo {
	return &fakeVaultRepo{vaults: make(map[string]*models.Vault)}
}

func copyVault(v *models.Vault) *models.Vault {
	cp := *v
	cp.Members = append([]models.VaultMember(nil), v.Members...)
	cp.MemberIDs = append([]string(nil), v.MemberIDs...)
	return &cp
}

func (r *fakeVaultRepo) Create(_ context.Context, vault *models.Vault) (string, error) {
	r.nextID++
	id := fmt.Sprintf("vault-%d", r.nextID)
	stored := copyVault(vault)
	stored.ID = id
	stored.MemberIDs = models.MemberIDsOf(stored.Members)
	r.vaults[id] = stored
	return id, nil
}

func (r *fakeVaultRepo) GetByID(_ context.Context, vaultID string) (*models.Vault, error) {
	vault, ok := r.vaults[vaultID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyVault(vault), nil
}

func (r *fakeVaultRepo) GetByMemberID(_ context.Context, userID string, _ map[string]string) ([]*models.Vault, error) {
	var result []*models.Vault
	for _, vault := range r.vaults {
		for _, id := range vault.MemberIDs {
			if id == userID {
				result = append(result, copyVault(vault))
				break
			}
		}
	}
	return result, nil
}

// Update writes metadata fields only, like the Firestore repository: the
// caller's member list is never persisted here.
func (r *fakeVaultRepo) Update(_ context.Context, vault *models.Vault) error {
	stored, ok := r.vaults[vault.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.Name = vault.Name
	stored.Description = vault.Description
	stored.IsPrivate = vault.IsPrivate
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeVaultRepo) Delete(_ context.Context, vaultID string) error {
	if _, ok := r.vaults[vaultID]; !ok {
		return db.ErrNotFound
	}
	delete(r.vaults, vaultID)
	return nil
}

func (r *fakeVaultRepo) UpdateMembers(_ context.Context, vaultID string, mutate func([]models.VaultMember) ([]models.VaultMember, error)) error {
	vault, ok := r.vaults[vaultID]
	if !ok {
		return db.ErrNotFound
	}
	members, err := mutate(append([]models.VaultMember(nil), vault.Members...))
	if err != nil {
		return err
	}
	vault.Members = members
	vault.MemberIDs = models.MemberIDsOf(members)
	vault.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeInvitationRepo struct {
	invitations map[string]*models.VaultInvitation
	vaultRepo   *fakeVaultRepo
	nextID      int
}

func newFakeInvitationRepo(vr *fakeVaultRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string]*models.VaultInvitation), vaultRepo: vr}
}

func copyInvitation(i *models.VaultInvitation) *models.VaultInvitation {
	cp := *i
	return &cp
}

func (r *fakeInvitationRepo) Create(_ context.Context, invitation *models.VaultInvitation) (string, error) {
	r.nextID++
	id := fmt.Sprintf("invitation-%d", r.nextID)
	stored := copyInvitation(invitation)
	stored.ID = id
	r.invitations[id] = stored
	return id, nil
}

func (r *fakeInvitationRepo) GetByID(_ context.Context, invitationID string) (*models.VaultInvitation, error) {
	invitation, ok := r.invitations[invitationID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyInvitation(invitation), nil
}

func (r *fakeInvitationRepo) GetPendingByVaultAndEmail(_ context.Context, vaultID, email string) (*models.VaultInvitation, error) {
	for _, invitation := range r.invitations {
		if invitation.VaultID == vaultID && invitation.Email == email && invitation.Status == models.InvitationStatusPending {
			return copyInvitation(invitation), nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeInvitationRepo) GetPendingByEmail(_ context.Context, email string) ([]*models.VaultInvitation, error) {
	var result []*models.VaultInvitation
	for _, invitation := range r.invitations {
		if invitation.Email == email && invitation.Status == models.InvitationStatusPending {
			result = append(result, copyInvitation(invitation))
		}
	}
	return result, nil
}

func (r *fakeInvitationRepo) UpdateStatus(_ context.Context, invitationID string, status models.InvitationStatus) error {
	invitation, ok := r.invitations[invitationID]
	if !ok {
		return db.ErrNotFound
	}
	invitation.Status = status
	return nil
}

func (r *fakeInvitationRepo) Accept(_ context.Context, invitationID string, member models.VaultMember) error {
	invitation, ok := r.invitations[invitationID]
	if !ok {
		return db.ErrNotFound
	}
	if invitation.Status != models.InvitationStatusPending {
		return db.ErrNotPending
	}
	vault, ok := r.vaultRepo.vaults[invitation.VaultID]
	if !ok {
		return db.ErrNotFound
	}
	vault.Members = append(vault.Members, member)
	vault.MemberIDs = append(vault.MemberIDs, member.UserID)
	invitation.Status = models.InvitationStatusAccepted
	return nil
}

func (r *fakeInvitationRepo) DeletePendingByVaultID(_ context.Context, vaultID string) error {
	for id, invitation := range r.invitations {
		if invitation.VaultID == vaultID && invitation.Status == models.InvitationStatusPending {
			delete(r.invitations, id)
		}
	}
	return nil
}

type fakeNoteRepo struct {
	notes  map[string]*models.Note
	nextID int
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[string]*models.Note)}
}

func copyNote(n *models.Note) *models.Note {
	cp := *n
	cp.Tags = append([]string(nil), n.Tags...)
	return &cp
}

func (r *fakeNoteRepo) Create(_ context.Context, note *models.Note) (string, error) {
	r.nextID++
	id := fmt.Sprintf("note-%d", r.nextID)
	stored := copyNote(note)
	stored.ID = id
	r.notes[id] = stored
	return id, nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, noteID string) (*models.Note, error) {
	note, ok := r.notes[noteID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyNote(note), nil
}

func (r *fakeNoteRepo) GetByUserID(_ context.Context, userID string, _ map[string]string) ([]*models.Note, error) {
	var result []*models.Note
	for _, note := range r.notes {
		if note.Personal() && note.UserID == userID {
			result = append(result, copyNote(note))
		}
	}
	return result, nil
}

func (r *fakeNoteRepo) GetByVaultID(_ context.Context, vaultID string, _ map[string]string) ([]*models.Note, error) {
	var result []*models.Note
	for _, note := range r.notes {
		if note.VaultID == vaultID {
			result = append(result, copyNote(note))
		}
	}
	return result, nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note *models.Note) error {
	if _, ok := r.notes[note.ID]; !ok {
		return db.ErrNotFound
	}
	r.notes[note.ID] = copyNote(note)
	return nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, noteID string) error {
	if _, ok := r.notes[noteID]; !ok {
		return db.ErrNotFound
	}
	delete(r.notes, noteID)
	return nil
}

func (r *fakeNoteRepo) DeleteByVaultID(_ context.Context, vaultID string) error {
	for id, note := range r.notes {
		if note.VaultID == vaultID {
			delete(r.notes, id)
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, logEntry models.AuditLog) error {
	r.entries = append(r.entries, logEntry)
	return nil
}

// fakeCache is a plain map behind the cache.Cache interface.
type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = fmt.Sprintf("%v", value)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

// fakeMQ records every published event body per queue.
type fakeMQ struct {
	published map[string][][]byte
}

func newFakeMQ() *fakeMQ {
	return &fakeMQ{published: make(map[string][][]byte)}
}

func (q *fakeMQ) Publish(queueName string, body []byte) error {
	q.published[queueName] = append(q.published[queueName], body)
	return nil
}

func (q *fakeMQ) Consume(string, func([]byte)) error { return nil }

func (q *fakeMQ) Close() error { return nil }

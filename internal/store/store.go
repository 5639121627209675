package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"hostel-backend-go/internal/models"
)

// Backend persists the document. Save receives the JSON payload of every
// collection that changed since the last successful save.
type Backend interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document, changed map[string][]byte) error
	Close() error
}

// Store keeps the whole document in memory and serialises writers. Every
// Update works on a clone which replaces the live document only after the
// backend accepted it.
type Store struct {
	mu        sync.RWMutex
	doc       *models.Document
	backend   Backend
	persisted map[string][]byte
}

// Tx is the mutable view handed to Update callbacks.
type Tx struct {
	*models.Document
}

// NextID allocates the next id of a collection.
func (tx *Tx) NextID(collection string) int64 {
	tx.Sequences[collection]++
	return tx.Sequences[collection]
}

func New(ctx context.Context, backend Backend) (*Store, error) {
	loaded, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc := loaded
	if doc == nil {
		doc = models.NewDocument()
	}
	normalize(doc)
	persisted := map[string][]byte{}
	if loaded != nil {
		persisted, err = EncodeBuckets(doc)
		if err != nil {
			return nil, err
		}
	}
	return &Store{doc: doc, backend: backend, persisted: persisted}, nil
}

// Update runs fn against a private copy of the document. When fn returns nil
// the changed collections are saved and the copy becomes the live document.
// Any error leaves the live document untouched.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working, err := cloneDocument(s.doc)
	if err != nil {
		return err
	}
	if err := fn(&Tx{Document: working}); err != nil {
		return err
	}
	encoded, err := EncodeBuckets(working)
	if err != nil {
		return err
	}
	changed := map[string][]byte{}
	for name, payload := range encoded {
		if !bytes.Equal(s.persisted[name], payload) {
			changed[name] = payload
		}
	}
	if len(changed) > 0 {
		if err := s.backend.Save(ctx, working, changed); err != nil {
			return fmt.Errorf("persist document: %w", err)
		}
		for name, payload := range changed {
			s.persisted[name] = payload
		}
	}
	s.doc = working
	return nil
}

// View hands fn a copy of the current document.
func (s *Store) View(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot, err := cloneDocument(s.doc)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return fn(snapshot)
}

// Export returns the indented JSON encoding of the current document.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.doc, "", "  ")
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func bucketTarget(doc *models.Document, name string) (any, error) {
	switch name {
	case models.CollectionUsers:
		return &doc.Users, nil
	case models.CollectionRooms:
		return &doc.Rooms, nil
	case models.CollectionBeds:
		return &doc.Beds, nil
	case models.CollectionRoomChanges:
		return &doc.RoomChangeRequests, nil
	case models.CollectionDetailsUpdates:
		return &doc.PersonalDetailsRequests, nil
	case models.CollectionFoodMenu:
		return &doc.FoodMenu, nil
	case models.CollectionSequences:
		return &doc.Sequences, nil
	}
	return nil, fmt.Errorf("unknown bucket %q", name)
}

// EncodeBuckets marshals each collection of doc separately.
func EncodeBuckets(doc *models.Document) (map[string][]byte, error) {
	out := make(map[string][]byte, len(models.Collections))
	for _, name := range models.Collections {
		target, err := bucketTarget(doc, name)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(target)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out[name] = payload
	}
	return out, nil
}

// DecodeBuckets rebuilds a document from per-collection payloads. Unknown
// buckets are ignored so older databases keep loading.
func DecodeBuckets(buckets map[string][]byte) (*models.Document, error) {
	doc := models.NewDocument()
	for name, payload := range buckets {
		target, err := bucketTarget(doc, name)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	normalize(doc)
	return doc, nil
}

func cloneDocument(doc *models.Document) (*models.Document, error) {
	buckets, err := EncodeBuckets(doc)
	if err != nil {
		return nil, err
	}
	return DecodeBuckets(buckets)
}

// normalize replaces nil collections and makes sure every sequence is at
// least the highest id already present.
func normalize(doc *models.Document) {
	if doc.Users == nil {
		doc.Users = []models.User{}
	}
	if doc.Rooms == nil {
		doc.Rooms = []models.Room{}
	}
	if doc.Beds == nil {
		doc.Beds = []models.Bed{}
	}
	if doc.RoomChangeRequests == nil {
		doc.RoomChangeRequests = []models.RoomChangeRequest{}
	}
	if doc.PersonalDetailsRequests == nil {
		doc.PersonalDetailsRequests = []models.PersonalDetailsRequest{}
	}
	if doc.FoodMenu == nil {
		doc.FoodMenu = []models.FoodMenuItem{}
	}
	if doc.Sequences == nil {
		doc.Sequences = map[string]int64{}
	}
	raise := func(collection string, id int64) {
		if id > doc.Sequences[collection] {
			doc.Sequences[collection] = id
		}
	}
	for _, item := range doc.Users {
		raise(models.CollectionUsers, item.ID)
	}
	for _, item := range doc.Rooms {
		raise(models.CollectionRooms, item.ID)
	}
	for _, item := range doc.Beds {
		raise(models.CollectionBeds, item.ID)
	}
	for _, item := range doc.RoomChangeRequests {
		raise(models.CollectionRoomChanges, item.ID)
	}
	for _, item := range doc.PersonalDetailsRequests {
		raise(models.CollectionDetailsUpdates, item.ID)
	}
	for _, item := range doc.FoodMenu {
		raise(models.CollectionFoodMenu, item.ID)
	}
}

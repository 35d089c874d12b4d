package boltstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/crystal-mush/softeval/pkg/gamedb"
	bbolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a referenced object or player does not exist.
var ErrNotFound = errors.New("boltstore: not found")

// Store wraps a bbolt database and the in-memory world the evaluator reads.
// Mutations go to the cache and are written through in the same call.
type Store struct {
	bolt  *bbolt.DB
	cache *gamedb.Database
}

// Open opens or creates a bbolt database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		v := meta.Get(keySchema)
		if v == nil {
			return meta.Put(keySchema, intToKey(schemaVersion))
		}
		if got := keyToInt(v); got > schemaVersion {
			return fmt.Errorf("schema %d is newer than supported %d", got, schemaVersion)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: init %s: %w", path, err)
	}

	return &Store{
		bolt:  db,
		cache: gamedb.NewDatabase(),
	}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// DB returns the in-memory database cache.
func (s *Store) DB() *gamedb.Database {
	return s.cache
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// HasData reports whether any objects are stored.
func (s *Store) HasData() bool {
	has := false
	s.bolt.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(bucketObjects).Stats().KeyN > 0
		return nil
	})
	return has
}

// --- Objects ---

// PutObject persists a single object and refreshes the player index.
func (s *Store) PutObject(obj *gamedb.Object) error {
	return s.PutObjects(obj)
}

// PutObjects persists multiple objects in a single transaction.
func (s *Store) PutObjects(objs ...*gamedb.Object) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return putObjects(tx, objs)
	})
}

func putObjects(tx *bbolt.Tx, objs []*gamedb.Object) error {
	b := tx.Bucket(bucketObjects)
	players := tx.Bucket(bucketPlayers)
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		data, err := encode(obj)
		if err != nil {
			return fmt.Errorf("boltstore: encode object #%d: %w", obj.DBRef, err)
		}
		if err := b.Put(refToKey(obj.DBRef), data); err != nil {
			return err
		}
		if obj.ObjType() == gamedb.TypePlayer && !obj.IsGoing() {
			if err := players.Put([]byte(strings.ToLower(obj.Name)), refToKey(obj.DBRef)); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddObject stores obj in the cache and persists it.
func (s *Store) AddObject(obj *gamedb.Object) error {
	s.cache.AddObject(obj)
	return s.PutObject(obj)
}

// DeleteObject removes an object along with its player index entry and
// any redirect it owns.
func (s *Store) DeleteObject(ref gamedb.DBRef) error {
	obj, ok := s.cache.Objects[ref]
	delete(s.cache.Objects, ref)
	delete(s.cache.Redirects, ref)
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		if ok && obj.ObjType() == gamedb.TypePlayer {
			tx.Bucket(bucketPlayers).Delete([]byte(strings.ToLower(obj.Name)))
		}
		tx.Bucket(bucketRedirects).Delete(refToKey(ref))
		return tx.Bucket(bucketObjects).Delete(refToKey(ref))
	})
}

// LookupPlayer resolves a player name through the player index.
func (s *Store) LookupPlayer(name string) (gamedb.DBRef, error) {
	ref := gamedb.Nothing
	s.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketPlayers).Get([]byte(strings.ToLower(name))); v != nil {
			ref = keyToRef(v)
		}
		return nil
	})
	if ref == gamedb.Nothing {
		return gamedb.Nothing, fmt.Errorf("player %q: %w", name, ErrNotFound)
	}
	return ref, nil
}

// --- Attributes ---

// SetAttr writes an attribute value on obj and persists the object. An
// empty value clears the attribute.
func (s *Store) SetAttr(obj gamedb.DBRef, num int, value string) error {
	if !s.cache.SetAttr(obj, num, value) {
		return fmt.Errorf("object %s: %w", obj, ErrNotFound)
	}
	return s.PutObject(s.cache.Objects[obj])
}

// DefineAttr returns the number for name, allocating and persisting a
// new user attribute when the name is unknown.
func (s *Store) DefineAttr(name string) (int, error) {
	if num, ok := s.cache.AttrNum(name); ok {
		return num, nil
	}
	num := s.cache.DefineAttr(name)
	if err := s.PutAttrDef(s.cache.AttrNames[num]); err != nil {
		return 0, err
	}
	return num, s.PutMeta()
}

// PutAttrDef persists an attribute definition.
func (s *Store) PutAttrDef(def *gamedb.AttrDef) error {
	data, err := encode(def)
	if err != nil {
		return fmt.Errorf("boltstore: encode attrdef %d: %w", def.Number, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttrDefs).Put(intToKey(def.Number), data)
	})
}

// PutMeta persists the attribute allocator.
func (s *Store) PutMeta() error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyNextAttr, intToKey(s.cache.NextAttr))
	})
}

// --- User functions ---

// PutUFunc stores a @function definition, keyed by upper-cased name.
func (s *Store) PutUFunc(def *gamedb.UFuncDef) error {
	def.Name = strings.ToUpper(def.Name)
	if _, ok := s.cache.Objects[def.Obj]; !ok {
		return fmt.Errorf("ufunc %s on %s: %w", def.Name, def.Obj, ErrNotFound)
	}
	data, err := encode(def)
	if err != nil {
		return fmt.Errorf("boltstore: encode ufunc %s: %w", def.Name, err)
	}
	s.cache.UFuncs[def.Name] = def
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUFuncs).Put([]byte(def.Name), data)
	})
}

// DeleteUFunc removes a @function definition.
func (s *Store) DeleteUFunc(name string) error {
	name = strings.ToUpper(name)
	delete(s.cache.UFuncs, name)
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUFuncs).Delete([]byte(name))
	})
}

// --- Redirects ---

// PutRedirect sends obj's trace output to target.
func (s *Store) PutRedirect(obj, target gamedb.DBRef) error {
	if _, ok := s.cache.Objects[target]; !ok {
		return fmt.Errorf("redirect target %s: %w", target, ErrNotFound)
	}
	s.cache.Redirects[obj] = target
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRedirects).Put(refToKey(obj), refToKey(target))
	})
}

// DeleteRedirect clears obj's redirect.
func (s *Store) DeleteRedirect(obj gamedb.DBRef) error {
	delete(s.cache.Redirects, obj)
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRedirects).Delete(refToKey(obj))
	})
}

// --- Bulk load and save ---

// ImportFromDatabase bulk-loads an in-memory Database into bbolt, batching
// 1000 objects per transaction. db becomes the store's cache.
func (s *Store) ImportFromDatabase(db *gamedb.Database) error {
	s.cache = db

	if err := s.PutMeta(); err != nil {
		return fmt.Errorf("boltstore: import meta: %w", err)
	}

	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAttrDefs)
		for _, def := range db.AttrNames {
			data, err := encode(def)
			if err != nil {
				return err
			}
			if err := b.Put(intToKey(def.Number), data); err != nil {
				return err
			}
		}
		uf := tx.Bucket(bucketUFuncs)
		for name, def := range db.UFuncs {
			data, err := encode(def)
			if err != nil {
				return err
			}
			if err := uf.Put([]byte(strings.ToUpper(name)), data); err != nil {
				return err
			}
		}
		rd := tx.Bucket(bucketRedirects)
		for obj, target := range db.Redirects {
			if err := rd.Put(refToKey(obj), refToKey(target)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltstore: import definitions: %w", err)
	}

	batch := make([]*gamedb.Object, 0, 1000)
	count := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.PutObjects(batch...); err != nil {
			return fmt.Errorf("boltstore: import objects: %w", err)
		}
		count += len(batch)
		batch = batch[:0]
		return nil
	}
	for _, obj := range db.Objects {
		batch = append(batch, obj)
		if len(batch) >= 1000 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Printf("boltstore: imported %d objects, %d attr defs, %d functions", count, len(db.AttrNames), len(db.UFuncs))
	return nil
}

// LoadAll reads the entire bbolt database into a fresh cache.
func (s *Store) LoadAll() error {
	cache := gamedb.NewDatabase()
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyNextAttr); v != nil {
			cache.NextAttr = keyToInt(v)
		}
		err := tx.Bucket(bucketAttrDefs).ForEach(func(k, v []byte) error {
			def, err := decode[gamedb.AttrDef](v)
			if err != nil {
				return fmt.Errorf("decode attrdef %d: %w", keyToInt(k), err)
			}
			cache.AttrNames[def.Number] = def
			cache.AttrByName[def.Name] = def
			return nil
		})
		if err != nil {
			return err
		}
		err = tx.Bucket(bucketObjects).ForEach(func(k, v []byte) error {
			obj, err := decode[gamedb.Object](v)
			if err != nil {
				return fmt.Errorf("decode object %s: %w", keyToRef(k), err)
			}
			cache.Objects[obj.DBRef] = obj
			return nil
		})
		if err != nil {
			return err
		}
		err = tx.Bucket(bucketUFuncs).ForEach(func(k, v []byte) error {
			def, err := decode[gamedb.UFuncDef](v)
			if err != nil {
				return fmt.Errorf("decode ufunc %q: %w", string(k), err)
			}
			cache.UFuncs[def.Name] = def
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketRedirects).ForEach(func(k, v []byte) error {
			cache.Redirects[keyToRef(k)] = keyToRef(v)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("boltstore: load: %w", err)
	}
	s.cache = cache
	log.Printf("boltstore: loaded %d objects, %d attr defs, %d functions from bolt",
		len(cache.Objects), len(cache.AttrNames), len(cache.UFuncs))
	return nil
}

// OpenWorld opens path and returns a store whose cache is populated. A new
// file is seeded with the minimal world.
func OpenWorld(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if s.HasData() {
		err = s.LoadAll()
	} else {
		err = s.ImportFromDatabase(gamedb.Minimal())
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Backup writes a hot snapshot of the database to path.
func (s *Store) Backup(path string) error {
	return s.bolt.View(func(tx *bbolt.Tx) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("boltstore: create backup %s: %w", path, err)
		}
		defer f.Close()
		if _, err := tx.WriteTo(f); err != nil {
			return fmt.Errorf("boltstore: write backup: %w", err)
		}
		log.Printf("boltstore: backup written to %s", path)
		return nil
	})
}

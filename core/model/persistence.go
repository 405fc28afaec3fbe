package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// SaveModel gob-encodes model into filename. Tree estimators implement
// gob.GobEncoder through their JSON envelope, so the file holds the same
// data as MarshalJSON.
//
//	clf := tree.NewDecisionTreeClassifier()
//	// ... clf.Fit(X, y) ...
//	err := model.SaveModel(clf, "tree.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel decodes a model written by SaveModel into model, which must
// be a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

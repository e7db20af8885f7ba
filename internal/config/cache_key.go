package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamDefinitionKey holds the full exam, answer keys included, for session start.
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:definition", examID)
}

// ExamPayloadKey holds the rendered student paper without answer keys.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ChangeFeedChannel is the pub/sub channel announcing writes to a collection.
func (r *CacheKeyStruct) ChangeFeedChannel(collection string) string {
	return fmt.Sprintf("changes:%s", collection)
}

var CacheKey = NewCacheKeyStruct()

// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionDocumentChunks 知识文档分片集合
	CollectionDocumentChunks = "document_chunks"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// DocumentChunksSchema 文档分片 Collection Schema
func DocumentChunksSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionDocumentChunks,
		Description:    "Knowledge document chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1024",
				},
			},
			{
				Name:     "doc_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "department",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "locale",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "16",
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

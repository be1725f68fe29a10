package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const itemServiceSource = `package com.shop.item;

import com.shop.item.ItemRepository;
import org.springframework.stereotype.Service;
import org.springframework.beans.factory.annotation.Autowired;

@Service
public class ItemService {

    @Autowired
    private ItemRepository repository;

    private String name;

    public ItemService(ItemRepository repository) {
        this.repository = repository;
    }

    public Item findItem(long id) {
        return repository.findById(id);
    }

    public void rename(String newName) {
        this.name = newName;
    }
}
`

func TestParseFile_ClassShape(t *testing.T) {
	classes, err := NewJavaParser().ParseFile("ItemService.java", []byte(itemServiceSource))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	jc := classes[0]
	require.Equal(t, "com.shop.item.ItemService", jc.ID())
	require.False(t, jc.IsInterface)
	require.True(t, jc.HasAnnotation("Service"))
	require.Equal(t, "com.shop.item.ItemRepository", jc.Imports["ItemRepository"])

	require.Len(t, jc.Fields, 2)
	require.Equal(t, "repository", jc.Fields[0].Name)
	require.Equal(t, "ItemRepository", jc.Fields[0].Type)
	require.Equal(t, "Autowired", jc.Fields[0].Annotations[0].Name)
}

func TestParseFile_MethodsAndInvocations(t *testing.T) {
	classes, err := NewJavaParser().ParseFile("ItemService.java", []byte(itemServiceSource))
	require.NoError(t, err)
	jc := classes[0]

	var find *Method
	for i := range jc.Methods {
		if jc.Methods[i].Name == "findItem" {
			find = &jc.Methods[i]
		}
	}
	require.NotNil(t, find)
	require.Contains(t, find.Invoked, "repository")

	var ctor *Method
	for i := range jc.Methods {
		if jc.Methods[i].Name == "<init>" {
			ctor = &jc.Methods[i]
		}
	}
	require.NotNil(t, ctor)
	require.Equal(t, []string{"ItemRepository"}, ctor.ParamTypes)
}

func TestParseFile_InterfaceWithGenerics(t *testing.T) {
	source := `package com.shop.item;

import org.springframework.data.jpa.repository.JpaRepository;

public interface ItemRepository extends JpaRepository<ItemEntity, Long> {
}
`
	classes, err := NewJavaParser().ParseFile("ItemRepository.java", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	jc := classes[0]
	require.True(t, jc.IsInterface)
	require.Contains(t, jc.Implements, "JpaRepository")
	require.True(t, IsRepositoryInterface(jc))
	require.Contains(t, jc.ReferencedTypes, "ItemEntity")
}

func TestParseFile_ExtendsAndEntity(t *testing.T) {
	source := `package com.shop.item;

import javax.persistence.Entity;
import javax.persistence.Table;

@Entity
@Table(name = "item_catalog")
public class ItemEntity extends BaseEntity {
    private String sku;
}
`
	classes, err := NewJavaParser().ParseFile("ItemEntity.java", []byte(source))
	require.NoError(t, err)
	jc := classes[0]

	require.Equal(t, "BaseEntity", jc.Extends)
	require.True(t, jc.HasAnnotation("Entity"))

	tables := ExtractTables(jc)
	require.Contains(t, tables, "item_catalog")
}

func TestGenericTypeArguments(t *testing.T) {
	require.Equal(t, []string{"ItemEntity", "Long"},
		GenericTypeArguments("JpaRepository<ItemEntity, Long>"))
	require.Nil(t, GenericTypeArguments("ItemService"))
}

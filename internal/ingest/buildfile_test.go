package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePom = `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
      <version>3.2.1</version>
    </dependency>
    <dependency>
      <groupId>org.postgresql</groupId>
      <artifactId>postgresql</artifactId>
    </dependency>
  </dependencies>
</project>
`

const sampleGradle = `
dependencies {
    implementation 'org.springframework.kafka:spring-kafka:3.1.0'
    testImplementation("org.junit.jupiter:junit-jupiter:5.10.0")
    implementation "com.fasterxml.jackson.core:jackson-databind"
}
`

func TestDependencyResolver_Maven(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pom.xml")
	require.NoError(t, os.WriteFile(path, []byte(samplePom), 0o644))

	r := NewDependencyResolver()
	r.LoadAll([]string{path})

	deps := r.Dependencies()
	require.Equal(t, "org.springframework.boot:spring-boot-starter-web:3.2.1",
		deps["org.springframework.boot:spring-boot-starter-web"])
	require.Equal(t, "org.postgresql:postgresql", deps["org.postgresql:postgresql"])
}

func TestDependencyResolver_Gradle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte(sampleGradle), 0o644))

	r := NewDependencyResolver()
	r.LoadAll([]string{path})

	deps := r.Dependencies()
	require.Equal(t, "org.springframework.kafka:spring-kafka:3.1.0",
		deps["org.springframework.kafka:spring-kafka"])
	require.Contains(t, deps, "org.junit.jupiter:junit-jupiter")
	require.Contains(t, deps, "com.fasterxml.jackson.core:jackson-databind")
}

func TestDependencyResolver_ResolveImport(t *testing.T) {
	r := NewDependencyResolver()
	r.add("org.springframework.kafka", "spring-kafka", "3.1.0")

	coord, ok := r.ResolveImport("org.springframework.kafka.core.KafkaTemplate")
	require.True(t, ok)
	require.Equal(t, "org.springframework.kafka:spring-kafka:3.1.0", coord)

	_, ok = r.ResolveImport("com.unknown.Thing")
	require.False(t, ok)
}

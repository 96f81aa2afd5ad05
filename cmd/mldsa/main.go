// Command mldsa generates ML-DSA key pairs and signs and verifies files
// with them. Keys travel as PEM (PKCS#8 / SubjectPublicKeyInfo), signatures
// as raw bytes.
package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halimede/mldsa"
)

var (
	flagLevel   int
	flagKey     string
	flagOut     string
	flagSig     string
	flagContext string
	flagDeterm  bool
)

func main() {
	root := &cobra.Command{
		Use:           "mldsa",
		Short:         "ML-DSA (FIPS 204) key generation, signing and verification",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&flagLevel, "level", 65, "parameter set (65 or 87)")

	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and write PEM files",
		RunE:  runKeygen,
	}
	keygen.Flags().StringVar(&flagOut, "out", "mldsa_key", "output path prefix (<out>.pem, <out>.pub.pem)")

	pubkey := &cobra.Command{
		Use:   "pubkey",
		Short: "Derive the public PEM from a private PEM",
		RunE:  runPubkey,
	}
	pubkey.Flags().StringVar(&flagKey, "key", "", "private key PEM file (required)")
	pubkey.Flags().StringVar(&flagOut, "out", "", "output file (default stdout)")
	pubkey.MarkFlagRequired("key")

	sign := &cobra.Command{
		Use:   "sign <file>",
		Short: "Sign a file with a private key",
		Args:  cobra.ExactArgs(1),
		RunE:  runSign,
	}
	sign.Flags().StringVar(&flagKey, "key", "", "private key PEM file (required)")
	sign.Flags().StringVar(&flagOut, "out", "", "signature output file (default <file>.sig)")
	sign.Flags().StringVar(&flagContext, "context", "", "context string (max 255 bytes)")
	sign.Flags().BoolVar(&flagDeterm, "deterministic", false, "use the deterministic signing variant")
	sign.MarkFlagRequired("key")

	verify := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a file against a signature and public key",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	verify.Flags().StringVar(&flagKey, "key", "", "public key PEM file (required)")
	verify.Flags().StringVar(&flagSig, "sig", "", "signature file (default <file>.sig)")
	verify.Flags().StringVar(&flagContext, "context", "", "context string (max 255 bytes)")
	verify.MarkFlagRequired("key")

	root.AddCommand(keygen, pubkey, sign, verify)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mldsa:", err)
		os.Exit(1)
	}
}

func checkLevel() error {
	if flagLevel != 65 && flagLevel != 87 {
		return fmt.Errorf("unsupported parameter set %d (want 65 or 87)", flagLevel)
	}
	return nil
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if err := checkLevel(); err != nil {
		return err
	}

	var privPEM, pubPEM []byte
	var err error
	switch flagLevel {
	case 65:
		var key *mldsa.Key65
		if key, err = mldsa.GenerateKey65(rand.Reader); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		if privPEM, err = key.MarshalPrivateKeyPEM(); err != nil {
			return err
		}
		pubPEM, err = key.PublicKey().MarshalPublicKeyPEM()
	case 87:
		var key *mldsa.Key87
		if key, err = mldsa.GenerateKey87(rand.Reader); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		if privPEM, err = key.MarshalPrivateKeyPEM(); err != nil {
			return err
		}
		pubPEM, err = key.PublicKey().MarshalPublicKeyPEM()
	}
	if err != nil {
		return err
	}

	prefix := flagOut
	if !cmd.Flags().Changed("out") {
		// flagOut is shared with the other subcommands, whose flag
		// registrations reset it to their own empty default.
		prefix = cmd.Flags().Lookup("out").DefValue
	}
	privPath := prefix + ".pem"
	pubPath := prefix + ".pub.pem"
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privPath, pubPath)
	return nil
}

func runPubkey(cmd *cobra.Command, args []string) error {
	if err := checkLevel(); err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(flagKey)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}

	var pubPEM []byte
	switch flagLevel {
	case 65:
		key, err := mldsa.ParsePrivateKey65PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse private key: %w", err)
		}
		pubPEM, err = key.PublicKey().MarshalPublicKeyPEM()
		if err != nil {
			return err
		}
	case 87:
		key, err := mldsa.ParsePrivateKey87PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse private key: %w", err)
		}
		pubPEM, err = key.PublicKey().MarshalPublicKeyPEM()
		if err != nil {
			return err
		}
	}

	if flagOut == "" {
		cmd.OutOrStdout().Write(pubPEM)
		return nil
	}
	return os.WriteFile(flagOut, pubPEM, 0o644)
}

func runSign(cmd *cobra.Command, args []string) error {
	if err := checkLevel(); err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(flagKey)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	msg, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	random := rand.Reader
	if flagDeterm {
		random = nil
	}

	var sig []byte
	switch flagLevel {
	case 65:
		key, err := mldsa.ParsePrivateKey65PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse private key: %w", err)
		}
		if sig, err = key.SignWithContext(random, msg, []byte(flagContext)); err != nil {
			return fmt.Errorf("sign: %w", err)
		}
	case 87:
		key, err := mldsa.ParsePrivateKey87PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse private key: %w", err)
		}
		if sig, err = key.SignWithContext(random, msg, []byte(flagContext)); err != nil {
			return fmt.Errorf("sign: %w", err)
		}
	}

	out := flagOut
	if out == "" {
		out = args[0] + ".sig"
	}
	if err := os.WriteFile(out, sig, 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(sig))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := checkLevel(); err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(flagKey)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	msg, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	sigPath := flagSig
	if sigPath == "" {
		sigPath = args[0] + ".sig"
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}

	var ok bool
	switch flagLevel {
	case 65:
		pk, err := mldsa.ParsePublicKey65PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse public key: %w", err)
		}
		ok = pk.Verify(sig, msg, []byte(flagContext))
	case 87:
		pk, err := mldsa.ParsePublicKey87PEM(keyPEM)
		if err != nil {
			return fmt.Errorf("parse public key: %w", err)
		}
		ok = pk.Verify(sig, msg, []byte(flagContext))
	}

	if !ok {
		return fmt.Errorf("signature verification failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "signature OK")
	return nil
}
